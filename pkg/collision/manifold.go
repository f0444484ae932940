// pkg/collision/manifold.go
package collision

// ManifoldState tracks where a contact is in its lifecycle
type ManifoldState int

const (
	// ManifoldNew is a contact first confirmed this frame
	ManifoldNew ManifoldState = iota
	// ManifoldPersistent is a contact confirmed on consecutive frames
	ManifoldPersistent
	// ManifoldStale is a contact not confirmed this frame but still cached
	ManifoldStale
)

// String returns a readable name for the state
func (s ManifoldState) String() string {
	switch s {
	case ManifoldNew:
		return "new"
	case ManifoldPersistent:
		return "persistent"
	case ManifoldStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Manifold is one cached contact and its lifecycle bookkeeping
type Manifold struct {
	Info  Info
	State ManifoldState
	// FirstSeen is the frame the contact was first confirmed
	FirstSeen uint64
	// LastSeen is the most recent frame the contact was confirmed
	LastSeen uint64
	// PersistentTime is the accumulated simulated contact duration in seconds
	PersistentTime float64
}

// ManifoldCache keeps contacts alive across frames so the pipeline can
// distinguish enter, stay, and exit transitions.
type ManifoldCache struct {
	manifolds map[[2]uint64]*Manifold
	// evictionFrames is how many frames a stale manifold survives before
	// the cache drops it. Brief separations from jitter within this
	// window do not retrigger enter events.
	evictionFrames uint64
}

// NewManifoldCache creates an empty cache whose stale contacts survive
// evictionFrames frames before their exit fires.
func NewManifoldCache(evictionFrames uint64) *ManifoldCache {
	return &ManifoldCache{
		manifolds:      make(map[[2]uint64]*Manifold),
		evictionFrames: evictionFrames,
	}
}

// Touch records a confirmed contact for the current frame. The returned
// manifold's state is New on first confirmation and Persistent after.
func (c *ManifoldCache) Touch(key [2]uint64, info Info, deltaTime float64, frame uint64) *Manifold {
	m, exists := c.manifolds[key]
	if !exists {
		m = &Manifold{
			Info:      info,
			State:     ManifoldNew,
			FirstSeen: frame,
			LastSeen:  frame,
		}
		c.manifolds[key] = m
		return m
	}

	// A stale contact confirmed again resumes without an enter transition
	m.Info = info
	m.State = ManifoldPersistent
	m.LastSeen = frame
	m.PersistentTime += deltaTime
	return m
}

// Get returns the cached manifold for the pair, if any
func (c *ManifoldCache) Get(key [2]uint64) (*Manifold, bool) {
	m, ok := c.manifolds[key]
	return m, ok
}

// Sweep marks unconfirmed manifolds stale and evicts those unseen for
// longer than the grace window. It returns the evicted manifolds; each
// represents a contact that has definitively ended.
func (c *ManifoldCache) Sweep(frame uint64) []*Manifold {
	var evicted []*Manifold
	for key, m := range c.manifolds {
		if m.LastSeen == frame {
			continue
		}
		if frame-m.LastSeen > c.evictionFrames {
			delete(c.manifolds, key)
			evicted = append(evicted, m)
			continue
		}
		m.State = ManifoldStale
	}
	return evicted
}

// Len returns the number of cached manifolds
func (c *ManifoldCache) Len() int {
	return len(c.manifolds)
}
