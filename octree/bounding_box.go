package octree

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BoundingBox is an axis-aligned bounding box. Min must be lower or equal to
// Max on every axis.
type BoundingBox struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

// NewBoundingBox returns a box spanning from min to max. It panics when min is
// greater than max on any axis.
func NewBoundingBox(min, max mgl64.Vec3) BoundingBox {
	for i := range min {
		if min[i] > max[i] {
			panic(fmt.Sprintf("bounding box min %v is greater than max %v", min, max))
		}
	}
	return BoundingBox{Min: min, Max: max}
}

// IsValid reports whether the box coordinates are finite and min is lower or
// equal to max on every axis. Boxes decoded from untrusted input are checked
// with it.
func (b BoundingBox) IsValid() bool {
	for i := range b.Min {
		if !isFinite(b.Min[i]) || !isFinite(b.Max[i]) || b.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FromSize returns a cube with the given edge length centered at the origin.
func FromSize(size float64) BoundingBox {
	return FromSizeOffset(size, mgl64.Vec3{})
}

// FromSizeOffset returns a cube with the given edge length centered at offset.
func FromSizeOffset(size float64, offset mgl64.Vec3) BoundingBox {
	half := mgl64.Vec3{size * 0.5, size * 0.5, size * 0.5}
	return NewBoundingBox(offset.Sub(half), offset.Add(half))
}

// Translate returns the box shifted by v.
func (b BoundingBox) Translate(v mgl64.Vec3) BoundingBox {
	return BoundingBox{
		Min: b.Min.Add(v),
		Max: b.Max.Add(v),
	}
}

// TranslateScalar returns the box shifted by d on every axis.
func (b BoundingBox) TranslateScalar(d float64) BoundingBox {
	return b.Translate(mgl64.Vec3{d, d, d})
}

// Size returns the length of the box on each axis.
func (b BoundingBox) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the center of the box.
func (b BoundingBox) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Equal reports whether both boxes have the same corners.
func (b BoundingBox) Equal(o BoundingBox) bool {
	return b.Min == o.Min && b.Max == o.Max
}

// ContainsBox reports whether o lies inside the box, faces included.
func (b BoundingBox) ContainsBox(o BoundingBox) bool {
	for i := 0; i < 3; i++ {
		if o.Min[i] < b.Min[i] || o.Max[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// OctantRelativeTo reports the octant the box lies in relative to origin.
// It returns false when the box straddles origin on any axis, touching
// included: zero is neither positive nor negative.
func (b BoundingBox) OctantRelativeTo(origin mgl64.Vec3) (Octant, bool) {
	var o Octant

	for i, bit := range axisBits {
		min := b.Min[i] - origin[i]
		max := b.Max[i] - origin[i]

		switch {
		case min > 0 && max > 0:
			o |= bit

		case min < 0 && max < 0:

		default:
			return 0, false
		}
	}

	return o, true
}

// OctantRegion returns the eighth of the box that lies in the given octant
// relative to its center.
func (b BoundingBox) OctantRegion(o Octant) BoundingBox {
	center := b.Center()
	min := b.Min
	max := b.Max

	for i, bit := range axisBits {
		if o&bit != 0 {
			min[i] = center[i]
		} else {
			max[i] = center[i]
		}
	}

	return NewBoundingBox(min, max)
}

// Intersects reports whether the boxes overlap on every axis. Boxes that only
// touch do not intersect.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	for i := range b.Min {
		if !(b.Min[i] < o.Max[i] && b.Max[i] > o.Min[i]) {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p lies inside the box, faces included.
func (b BoundingBox) ContainsPoint(p mgl64.Vec3) bool {
	for i := range p {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// RayIntersection returns the distance along dir at which a ray cast from
// origin hits the box. When origin is inside the box, the distance to the
// exit point is returned. Distances are expressed in units of dir.
func (b BoundingBox) RayIntersection(origin, dir mgl64.Vec3) (float64, bool) {
	entry := math.Inf(-1)
	exit := math.Inf(1)

	for i := range dir {
		t1 := (b.Min[i] - origin[i]) / dir[i]
		t2 := (b.Max[i] - origin[i]) / dir[i]

		entry = maxNum(entry, minNum(t1, t2))
		exit = minNum(exit, maxNum(t1, t2))
	}

	if exit <= 0 || entry > exit {
		return 0, false
	}
	if entry <= 0 {
		return exit, true
	}
	return entry, true
}

// minNum and maxNum ignore NaN operands. A NaN shows up when the ray origin
// lies on a slab face that is parallel to the ray.
func minNum(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	}
	return math.Min(a, b)
}

func maxNum(a, b float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	}
	return math.Max(a, b)
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%v %v]", b.Min, b.Max)
}
