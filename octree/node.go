package octree

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Number of local entries a node holds before it tries to push them down to
// its children. Entries straddling the node center stay local whatever the
// count.
const localThreshold = 4

// Node is a node of an octree. It owns a region of space, the entries that
// could not be pushed to a child and up to 8 children indexed by octant.
type Node struct {
	region   BoundingBox
	local    entrySet
	children [octantCount]*Node
}

func newNode(region BoundingBox) *Node {
	return &Node{region: region}
}

// Region returns the region of space owned by the node.
func (n *Node) Region() BoundingBox {
	return n.region
}

// Child returns the child in the given octant.
func (n *Node) Child(o Octant) (*Node, bool) {
	c := n.children[o]
	return c, c != nil
}

// ChildCount returns the number of existing children.
func (n *Node) ChildCount() int {
	var count int
	for _, c := range n.children {
		if c != nil {
			count++
		}
	}
	return count
}

// LocalIDs returns the ids of the entities stored in the node itself, in
// ascending order.
func (n *Node) LocalIDs() []EntityID {
	ids := make([]EntityID, len(n.local))
	for i, e := range n.local {
		ids[i] = e.id
	}
	return ids
}

// IsEmpty reports whether the node has neither local entries nor children.
func (n *Node) IsEmpty() bool {
	return len(n.local) == 0 && n.ChildCount() == 0
}

func (n *Node) insert(e entry) bool {
	if len(n.local) < localThreshold {
		return n.local.insert(e)
	}

	type move struct {
		entry  entry
		octant Octant
	}

	moves := make([]move, 0, len(n.local)+1)
	ok := true

	if o, fits := n.childOctant(e.bound); fits {
		moves = append(moves, move{entry: e, octant: o})
	} else {
		ok = n.local.insert(e)
	}

	n.local.retain(func(le entry) bool {
		o, fits := n.childOctant(le.bound)
		if !fits {
			return true
		}

		moves = append(moves, move{entry: le, octant: o})
		return false
	})

	for _, m := range moves {
		child := n.children[m.octant]
		if child == nil {
			child = newNode(n.region.OctantRegion(m.octant))
			n.children[m.octant] = child
		}

		ok = child.insert(m.entry) && ok
	}

	return ok
}

// childOctant returns the octant of the child an entry with the given bound
// belongs to. It is false when the bound straddles the node center or does
// not fit in the child region, in which case the entry stays local.
func (n *Node) childOctant(bound BoundingBox) (Octant, bool) {
	o, clean := bound.OctantRelativeTo(n.region.Center())
	if !clean || !n.region.OctantRegion(o).ContainsBox(bound) {
		return 0, false
	}
	return o, true
}

func (n *Node) remove(id EntityID, bound BoundingBox) bool {
	o, fits := n.childOctant(bound)
	if !fits {
		return n.local.remove(id)
	}

	child := n.children[o]
	if child == nil {
		return n.local.remove(id)
	}

	if child.remove(id, bound) {
		if child.IsEmpty() {
			n.children[o] = nil
		}
		return true
	}

	// The entity may have been stored here while the node was under its
	// threshold, after the child was created.
	return n.local.remove(id)
}

func (n *Node) query(bound BoundingBox, singleChild bool, visit func(EntityID)) {
	for _, e := range n.local {
		if e.bound.Intersects(bound) {
			visit(e.id)
		}
	}

	center := n.region.Center()

	if singleChild {
		if o, clean := bound.OctantRelativeTo(center); clean {
			if child := n.children[o]; child != nil {
				child.query(bound, singleChild, visit)
			}
		}
		return
	}

	for i, child := range n.children {
		if child != nil && reachesOctant(bound, center, Octant(i)) {
			child.query(bound, singleChild, visit)
		}
	}
}

// reachesOctant reports whether bound extends strictly past center into the
// half-space of the octant on every axis. Entries stored under a child lie
// strictly inside that half-space, so no overlapping entry can be found
// under an octant the bound does not reach.
func reachesOctant(bound BoundingBox, center mgl64.Vec3, o Octant) bool {
	for i, bit := range axisBits {
		if o&bit != 0 {
			if bound.Max[i] <= center[i] {
				return false
			}
		} else if bound.Min[i] >= center[i] {
			return false
		}
	}
	return true
}

// raycast checks the local entries before the region early-out: the root may
// hold entries lying outside its region.
func (n *Node) raycast(origin, dir mgl64.Vec3) (Hit, bool) {
	var hit Hit
	var found bool

	for _, e := range n.local {
		dist, ok := e.bound.RayIntersection(origin, dir)
		if ok && (!found || dist < hit.Distance) {
			hit = Hit{ID: e.id, Bound: e.bound, Distance: dist}
			found = true
		}
	}

	if _, ok := n.region.RayIntersection(origin, dir); !ok {
		return hit, found
	}

	for _, child := range n.children {
		if child == nil {
			continue
		}

		if h, ok := child.raycast(origin, dir); ok && (!found || h.Distance < hit.Distance) {
			hit = h
			found = true
		}
	}

	return hit, found
}

func (n *Node) walk(depth int, f func(depth int, n *Node)) {
	f(depth, n)

	for _, child := range n.children {
		if child != nil {
			child.walk(depth+1, f)
		}
	}
}
