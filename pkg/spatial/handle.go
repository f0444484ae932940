// pkg/spatial/handle.go
package spatial

import "fmt"

// Handle is a generation-counted identity for a spatial object. A handle
// whose slot has been recycled carries a stale generation and is detectably
// invalid instead of silently aliasing the new occupant.
type Handle struct {
	Index      uint32
	Generation uint32
}

// Key packs the handle into a single comparable map key
func (h Handle) Key() uint64 {
	return uint64(h.Generation)<<32 | uint64(h.Index)
}

// IsZero reports whether the handle is the never-allocated zero value
func (h Handle) IsZero() bool {
	return h.Index == 0 && h.Generation == 0
}

// String returns a compact debug form
func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.Index, h.Generation)
}
