package octree

// Octant identifies one of the 8 sub-regions of a box split at its center.
// Bits 4, 2 and 1 are set when the octant lies on the positive side of the x,
// y and z axis.
type Octant uint8

const (
	octantX Octant = 4
	octantY Octant = 2
	octantZ Octant = 1

	octantCount = 8
)

var axisBits = [3]Octant{octantX, octantY, octantZ}

// NewOctant returns the octant with the given axis signs. True is positive.
func NewOctant(x, y, z bool) Octant {
	var o Octant
	if x {
		o |= octantX
	}
	if y {
		o |= octantY
	}
	if z {
		o |= octantZ
	}
	return o
}

// Signs returns whether the octant lies on the positive side of each axis.
func (o Octant) Signs() (x, y, z bool) {
	return o&octantX != 0, o&octantY != 0, o&octantZ != 0
}
