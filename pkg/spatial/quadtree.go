// pkg/spatial/quadtree.go
package spatial

import (
	"github.com/opd-ai/go-collider/pkg/geom"
)

// nodeIndex addresses a node inside the tree arena; nilNode marks absent
// parents and children.
type nodeIndex int32

const nilNode nodeIndex = -1

// treeNode is one quadtree node. Nodes live in a flat arena and reference
// each other by index, so there are no parent/child pointer cycles and
// merging is plain slice bookkeeping.
type treeNode struct {
	bounds       geom.AABB
	parent       nodeIndex
	children     [4]nodeIndex
	depth        int
	objects      []Object
	subtreeCount int
}

func (n *treeNode) isLeaf() bool {
	return n.children[0] == nilNode
}

// quadTree is the shared implementation behind DynamicQuadTree and
// LooseQuadTree. Insertion descends to the smallest node whose effective
// bounds fully contain the object; straddlers stay at the ancestor rather
// than being duplicated. looseFactor expands each node's effective bounds
// over its tight bounds; predictionHorizon extrapolates insertion bounds
// along the object's velocity to cut reinsertion churn for fast movers.
type quadTree struct {
	nodes     []treeNode
	freeList  []nodeIndex
	root      nodeIndex
	maxDepth  int
	maxPerNode int

	looseFactor       float64
	predictionHorizon float64

	locations    map[uint64]nodeIndex
	insertBounds map[uint64]geom.AABB
}

func newQuadTree(bounds geom.AABB, maxDepth, maxPerNode int, looseFactor, predictionHorizon float64) quadTree {
	t := quadTree{
		maxDepth:          maxDepth,
		maxPerNode:        maxPerNode,
		looseFactor:       looseFactor,
		predictionHorizon: predictionHorizon,
		locations:         make(map[uint64]nodeIndex),
		insertBounds:      make(map[uint64]geom.AABB),
	}
	t.root = t.allocNode(bounds, nilNode, 0)
	return t
}

// DynamicQuadTree is a recursive 4-way subdivision over tight node bounds,
// the default structure for ordinary moving objects.
type DynamicQuadTree struct {
	quadTree
}

// NewDynamicQuadTree creates a tree covering bounds
func NewDynamicQuadTree(bounds geom.AABB, maxDepth, maxObjectsPerNode int) *DynamicQuadTree {
	return &DynamicQuadTree{newQuadTree(bounds, maxDepth, maxObjectsPerNode, 1.0, 0)}
}

// LooseQuadTree expands every node's effective bounds by looseFactor and
// inserts objects under a velocity-extrapolated bounding box. Culling gets
// slightly coarser; fast-moving objects reinsert far less often.
type LooseQuadTree struct {
	quadTree
}

// NewLooseQuadTree creates a loose tree covering bounds. predictionHorizon
// is in seconds of velocity extrapolation.
func NewLooseQuadTree(bounds geom.AABB, maxDepth, maxObjectsPerNode int, looseFactor, predictionHorizon float64) *LooseQuadTree {
	return &LooseQuadTree{newQuadTree(bounds, maxDepth, maxObjectsPerNode, looseFactor, predictionHorizon)}
}

// allocNode takes a node from the free list or grows the arena
func (t *quadTree) allocNode(bounds geom.AABB, parent nodeIndex, depth int) nodeIndex {
	node := treeNode{
		bounds:   bounds,
		parent:   parent,
		children: [4]nodeIndex{nilNode, nilNode, nilNode, nilNode},
		depth:    depth,
	}
	if n := len(t.freeList); n > 0 {
		idx := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.nodes[idx] = node
		return idx
	}
	t.nodes = append(t.nodes, node)
	return nodeIndex(len(t.nodes) - 1)
}

// effectiveBounds returns the node bounds expanded by the loose factor
func (t *quadTree) effectiveBounds(idx nodeIndex) geom.AABB {
	if t.looseFactor == 1.0 {
		return t.nodes[idx].bounds
	}
	return t.nodes[idx].bounds.Expanded(t.looseFactor)
}

// insertionBounds returns the box the object is filed under: its bounds,
// extended along its velocity for the prediction horizon.
func (t *quadTree) insertionBounds(obj Object) geom.AABB {
	bounds := obj.Bounds()
	if t.predictionHorizon <= 0 {
		return bounds
	}
	predicted := bounds.Translated(obj.Velocity().Scale(t.predictionHorizon))
	return bounds.Union(predicted)
}

// findFit descends from the root to the smallest node whose effective
// bounds fully contain box.
func (t *quadTree) findFit(box geom.AABB) nodeIndex {
	idx := t.root
	for {
		node := &t.nodes[idx]
		if node.isLeaf() {
			return idx
		}
		descended := false
		for _, child := range node.children {
			if t.effectiveBounds(child).ContainsAABB(box) {
				idx = child
				descended = true
				break
			}
		}
		if !descended {
			return idx
		}
	}
}

// Insert files the object at the smallest containing node
func (t *quadTree) Insert(obj Object) {
	key := obj.Handle().Key()
	if _, exists := t.locations[key]; exists {
		t.Remove(obj)
	}

	box := t.insertionBounds(obj)
	idx := t.findFit(box)
	t.attach(idx, obj, key, box)
	t.maybeSubdivide(idx)
}

// attach places the object at a node and updates ancestor counts
func (t *quadTree) attach(idx nodeIndex, obj Object, key uint64, box geom.AABB) {
	t.nodes[idx].objects = append(t.nodes[idx].objects, obj)
	t.locations[key] = idx
	t.insertBounds[key] = box
	for n := idx; n != nilNode; n = t.nodes[n].parent {
		t.nodes[n].subtreeCount++
	}
}

// detach removes the object from its node and updates ancestor counts
func (t *quadTree) detach(idx nodeIndex, key uint64) {
	node := &t.nodes[idx]
	for i, obj := range node.objects {
		if obj.Handle().Key() == key {
			node.objects = append(node.objects[:i], node.objects[i+1:]...)
			break
		}
	}
	delete(t.locations, key)
	delete(t.insertBounds, key)
	for n := idx; n != nilNode; n = t.nodes[n].parent {
		t.nodes[n].subtreeCount--
	}
}

// Remove detaches the object and collapses underpopulated ancestors
func (t *quadTree) Remove(obj Object) bool {
	key := obj.Handle().Key()
	idx, ok := t.locations[key]
	if !ok {
		return false
	}
	t.detach(idx, key)
	t.mergeUpward(idx)
	return true
}

// Update refiles the object only when its best-fit node changed
func (t *quadTree) Update(obj Object, previous geom.AABB) {
	key := obj.Handle().Key()
	current, ok := t.locations[key]
	if !ok {
		t.Insert(obj)
		return
	}

	box := t.insertionBounds(obj)
	if t.effectiveBounds(current).ContainsAABB(box) && t.findFit(box) == current {
		t.insertBounds[key] = box
		return
	}

	t.detach(current, key)
	target := t.findFit(box)
	t.attach(target, obj, key, box)
	t.maybeSubdivide(target)
	t.mergeUpward(current)
}

// maybeSubdivide splits a leaf that exceeds capacity and redistributes the
// objects that fit entirely inside one of the new children.
func (t *quadTree) maybeSubdivide(idx nodeIndex) {
	node := &t.nodes[idx]
	if !node.isLeaf() || len(node.objects) <= t.maxPerNode || node.depth >= t.maxDepth {
		return
	}

	bounds := node.bounds
	center := bounds.Center()
	depth := node.depth + 1
	quads := [4]geom.AABB{
		{Min: bounds.Min, Max: center},
		{Min: geom.Vector2D{X: center.X, Y: bounds.Min.Y}, Max: geom.Vector2D{X: bounds.Max.X, Y: center.Y}},
		{Min: geom.Vector2D{X: bounds.Min.X, Y: center.Y}, Max: geom.Vector2D{X: center.X, Y: bounds.Max.Y}},
		{Min: center, Max: bounds.Max},
	}

	var children [4]nodeIndex
	for i, quad := range quads {
		children[i] = t.allocNode(quad, idx, depth)
	}
	// allocNode may grow the arena; refresh the pointer before writing
	node = &t.nodes[idx]
	node.children = children

	remaining := node.objects[:0]
	for _, obj := range node.objects {
		key := obj.Handle().Key()
		box := t.insertBounds[key]
		moved := false
		for _, child := range children {
			if t.effectiveBounds(child).ContainsAABB(box) {
				t.nodes[child].objects = append(t.nodes[child].objects, obj)
				t.nodes[child].subtreeCount++
				t.locations[key] = child
				moved = true
				break
			}
		}
		if !moved {
			remaining = append(remaining, obj)
		}
	}
	t.nodes[idx].objects = remaining
}

// mergeUpward walks ancestors and collapses any subtree whose total object
// count has dropped to half the node capacity or below.
func (t *quadTree) mergeUpward(idx nodeIndex) {
	for n := idx; n != nilNode; n = t.nodes[n].parent {
		if !t.nodes[n].isLeaf() && t.nodes[n].subtreeCount <= t.maxPerNode/2 {
			t.collapse(n)
		}
	}
}

// collapse pulls every descendant object into the node and frees the
// children.
func (t *quadTree) collapse(idx nodeIndex) {
	children := t.nodes[idx].children
	t.nodes[idx].children = [4]nodeIndex{nilNode, nilNode, nilNode, nilNode}
	for _, child := range children {
		t.reclaim(child, idx)
	}
}

// reclaim moves a subtree's objects to dst and returns its nodes to the
// free list.
func (t *quadTree) reclaim(idx, dst nodeIndex) {
	node := &t.nodes[idx]
	for _, obj := range node.objects {
		t.nodes[dst].objects = append(t.nodes[dst].objects, obj)
		t.locations[obj.Handle().Key()] = dst
	}
	node.objects = nil
	children := node.children
	node.children = [4]nodeIndex{nilNode, nilNode, nilNode, nilNode}
	node.subtreeCount = 0
	for _, child := range children {
		if child != nilNode {
			t.reclaim(child, dst)
		}
	}
	t.freeList = append(t.freeList, idx)
}

// Query appends the active objects intersecting region to out
func (t *quadTree) Query(region geom.AABB, out []Object) []Object {
	return t.queryNode(t.root, region, out)
}

func (t *quadTree) queryNode(idx nodeIndex, region geom.AABB, out []Object) []Object {
	// The root keeps straddlers whose bounds escape the world box, so its
	// residents are scanned even when the region misses the root bounds.
	inBounds := t.effectiveBounds(idx).Intersects(region)
	if !inBounds && idx != t.root {
		return out
	}
	node := &t.nodes[idx]
	for _, obj := range node.objects {
		if obj.IsActive() && obj.Bounds().Intersects(region) {
			out = append(out, obj)
		}
	}
	if inBounds && !node.isLeaf() {
		for _, child := range node.children {
			out = t.queryNode(child, region, out)
		}
	}
	return out
}

// Count returns the number of tracked objects
func (t *quadTree) Count() int {
	return len(t.locations)
}

// NodeCount returns the number of live arena nodes
func (t *quadTree) NodeCount() int {
	return len(t.nodes) - len(t.freeList)
}

// Clear removes all objects and resets the arena to a single root
func (t *quadTree) Clear() {
	bounds := t.nodes[t.root].bounds
	t.nodes = t.nodes[:0]
	t.freeList = t.freeList[:0]
	t.locations = make(map[uint64]nodeIndex)
	t.insertBounds = make(map[uint64]geom.AABB)
	t.root = t.allocNode(bounds, nilNode, 0)
}

// Rebalance runs a full merge and subdivide pass over the tree. Called from
// the manager's Optimize cadence, never concurrently with other operations.
func (t *quadTree) Rebalance() {
	t.rebalanceNode(t.root)
}

func (t *quadTree) rebalanceNode(idx nodeIndex) {
	node := &t.nodes[idx]
	if !node.isLeaf() {
		if node.subtreeCount <= t.maxPerNode/2 {
			t.collapse(idx)
		} else {
			for _, child := range t.nodes[idx].children {
				if child != nilNode {
					t.rebalanceNode(child)
				}
			}
			return
		}
	}
	t.maybeSubdivide(idx)
}
