package sandbox

import (
	"math"

	"github.com/aukilabs/kubb/octree"
	"github.com/go-gl/mathgl/mgl64"
)

// The distance a placement point is moved back along the ray so that a cube
// placed against a surface does not overlap it.
const placementCorrection = 0.01

// CubeBound is the collider of a placed cube, relative to its position.
var CubeBound = octree.FromSize(1)

// PlacementPosition returns the center of the unit cell where a cube is
// placed by a ray. The ray stops on the nearest indexed entity, or on the
// boundary of the index region when no entity is hit.
func PlacementPosition(index octree.SpatialIndex, origin, dir mgl64.Vec3) (mgl64.Vec3, bool) {
	_, p, ok := index.RaycastHit(origin, dir, placementCorrection)
	if !ok {
		dist, hit := index.Region().RayIntersection(origin, dir)
		if !hit {
			return mgl64.Vec3{}, false
		}
		p = origin.Add(dir.Mul(dist - placementCorrection))
	}

	return mgl64.Vec3{
		math.Floor(p[0]) + 0.5,
		math.Floor(p[1]) + 0.5,
		math.Floor(p[2]) + 0.5,
	}, true
}
