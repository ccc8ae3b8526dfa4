// Package octree provides a dynamically subdividing octree indexing the
// axis-aligned bounding boxes of entities for broad-phase region and ray
// queries.
//
// An Octree is not safe for concurrent use. Callers serialize mutations and
// must not query while a mutation is in progress.
package octree

import (
	"github.com/go-gl/mathgl/mgl64"
)

// SpatialIndex is the interface that describes a broad-phase spatial index.
type SpatialIndex interface {
	// Adds an entity. Returns false when an entity with the same id is
	// already indexed, in which case nothing is updated.
	Insert(id EntityID, bound BoundingBox) bool

	// Removes an entity. The bound is only used to find where the entity is
	// stored. Returns whether the entity was removed.
	Remove(id EntityID, bound BoundingBox) bool

	// Calls visit with the id of every indexed entity whose bound intersects
	// the given bound.
	QueryIntersecting(bound BoundingBox, visit func(EntityID))

	// Returns the nearest entity hit by a ray.
	Raycast(origin, dir mgl64.Vec3) (Hit, bool)

	// Returns the nearest entity hit by a ray and the impact point moved
	// back along the ray by correction.
	RaycastHit(origin, dir mgl64.Vec3, correction float64) (Hit, mgl64.Vec3, bool)

	// Reports whether nothing is indexed.
	IsEmpty() bool

	// Returns the region covered by the index root.
	Region() BoundingBox

	// debug stuff:
	Stats() Stats
}

// Hit describes an entity struck by a ray.
type Hit struct {
	ID    EntityID    `json:"id"`
	Bound BoundingBox `json:"bound"`

	// The distance along the ray direction, in units of the direction.
	Distance float64 `json:"distance"`
}

// Stats describes the shape of an octree.
type Stats struct {
	Region      BoundingBox `json:"region"`
	NodeCount   int         `json:"node_count"`
	EntityCount int         `json:"entity_count"`
	MaxDepth    int         `json:"max_depth"`
	MaxLocal    int         `json:"max_local"`

	// The number of entities stored at each depth.
	Occupancy []int `json:"occupancy"`
}

// Option configures an octree.
type Option func(*Octree)

// WithSingleChildQuery makes region queries descend only into the child the
// query bound lies in, and into no child when it straddles a node center.
// Queries are faster but miss entities stored under other children.
func WithSingleChildQuery() Option {
	return func(t *Octree) {
		t.singleChildQuery = true
	}
}

// Octree is the root of an octree. It implements SpatialIndex.
type Octree struct {
	root             *Node
	bounds           map[EntityID]BoundingBox
	singleChildQuery bool
}

// New returns an empty octree covering the given region.
func New(region BoundingBox, opts ...Option) *Octree {
	t := &Octree{
		root:   newNode(region),
		bounds: make(map[EntityID]BoundingBox),
	}

	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewCube returns an empty octree covering a cube of the given edge length
// centered at offset.
func NewCube(size float64, offset mgl64.Vec3, opts ...Option) *Octree {
	return New(FromSizeOffset(size, offset), opts...)
}

// Root returns the root node.
func (t *Octree) Root() *Node {
	return t.root
}

func (t *Octree) Region() BoundingBox {
	return t.root.region
}

func (t *Octree) Insert(id EntityID, bound BoundingBox) bool {
	if _, ok := t.bounds[id]; ok {
		return false
	}

	t.bounds[id] = bound
	return t.root.insert(entry{id: id, bound: bound})
}

func (t *Octree) Remove(id EntityID, bound BoundingBox) bool {
	if !t.root.remove(id, bound) {
		return false
	}

	delete(t.bounds, id)
	return true
}

// RemoveID removes an entity using the bound it was inserted with.
func (t *Octree) RemoveID(id EntityID) bool {
	bound, ok := t.bounds[id]
	if !ok {
		return false
	}
	return t.Remove(id, bound)
}

// Contains reports whether an entity is indexed.
func (t *Octree) Contains(id EntityID) bool {
	_, ok := t.bounds[id]
	return ok
}

// Bound returns the bound an entity was inserted with.
func (t *Octree) Bound(id EntityID) (BoundingBox, bool) {
	b, ok := t.bounds[id]
	return b, ok
}

// Len returns the number of indexed entities.
func (t *Octree) Len() int {
	return len(t.bounds)
}

func (t *Octree) IsEmpty() bool {
	return t.root.IsEmpty()
}

func (t *Octree) QueryIntersecting(bound BoundingBox, visit func(EntityID)) {
	t.root.query(bound, t.singleChildQuery, visit)
}

// Intersecting returns the ids of the entities whose bound intersects the
// given bound.
func (t *Octree) Intersecting(bound BoundingBox) []EntityID {
	var ids []EntityID
	t.QueryIntersecting(bound, func(id EntityID) {
		ids = append(ids, id)
	})
	return ids
}

func (t *Octree) Raycast(origin, dir mgl64.Vec3) (Hit, bool) {
	return t.root.raycast(origin, dir)
}

func (t *Octree) RaycastHit(origin, dir mgl64.Vec3, correction float64) (Hit, mgl64.Vec3, bool) {
	hit, ok := t.Raycast(origin, dir)
	if !ok {
		return Hit{}, mgl64.Vec3{}, false
	}
	return hit, origin.Add(dir.Mul(hit.Distance - correction)), true
}

func (t *Octree) Stats() Stats {
	stats := Stats{
		Region: t.root.region,
	}

	t.root.walk(0, func(depth int, n *Node) {
		stats.NodeCount++
		stats.EntityCount += len(n.local)

		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		if len(n.local) > stats.MaxLocal {
			stats.MaxLocal = len(n.local)
		}

		for len(stats.Occupancy) <= depth {
			stats.Occupancy = append(stats.Occupancy, 0)
		}
		stats.Occupancy[depth] += len(n.local)
	})

	return stats
}
