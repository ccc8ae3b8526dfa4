package octree

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestNewBoundingBox(t *testing.T) {
	t.Run("box is created", func(t *testing.T) {
		b := NewBoundingBox(mgl64.Vec3{-1, -2, -3}, mgl64.Vec3{1, 2, 3})
		require.Equal(t, mgl64.Vec3{-1, -2, -3}, b.Min)
		require.Equal(t, mgl64.Vec3{1, 2, 3}, b.Max)
	})

	t.Run("flat box is created", func(t *testing.T) {
		b := NewBoundingBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 1})
		require.Equal(t, mgl64.Vec3{1, 0, 1}, b.Size())
	})

	t.Run("min greater than max panics", func(t *testing.T) {
		require.Panics(t, func() {
			NewBoundingBox(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{1, 1, 1})
		})
	})
}

func TestFromSize(t *testing.T) {
	b := FromSize(1)
	require.Equal(t, mgl64.Vec3{-0.5, -0.5, -0.5}, b.Min)
	require.Equal(t, mgl64.Vec3{0.5, 0.5, 0.5}, b.Max)
	require.Equal(t, mgl64.Vec3{}, b.Center())
}

func TestFromSizeOffset(t *testing.T) {
	b := FromSizeOffset(64, mgl64.Vec3{0, 32, 0})
	require.Equal(t, mgl64.Vec3{-32, 0, -32}, b.Min)
	require.Equal(t, mgl64.Vec3{32, 64, 32}, b.Max)
	require.Equal(t, mgl64.Vec3{0, 32, 0}, b.Center())
	require.Equal(t, mgl64.Vec3{64, 64, 64}, b.Size())
}

func TestBoundingBoxTranslate(t *testing.T) {
	b := FromSize(2)

	t.Run("translate by vector", func(t *testing.T) {
		moved := b.Translate(mgl64.Vec3{1, 2, 3})
		require.Equal(t, mgl64.Vec3{0, 1, 2}, moved.Min)
		require.Equal(t, mgl64.Vec3{2, 3, 4}, moved.Max)
		require.Equal(t, FromSize(2), b)
	})

	t.Run("translate by scalar", func(t *testing.T) {
		moved := b.TranslateScalar(-1)
		require.Equal(t, mgl64.Vec3{-2, -2, -2}, moved.Min)
		require.Equal(t, mgl64.Vec3{0, 0, 0}, moved.Max)
	})
}

func TestBoundingBoxOctantRelativeTo(t *testing.T) {
	tests := []struct {
		name   string
		box    BoundingBox
		origin mgl64.Vec3
		octant Octant
		clean  bool
	}{
		{
			name:   "all positive",
			box:    NewBoundingBox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{2, 2, 2}),
			octant: NewOctant(true, true, true),
			clean:  true,
		},
		{
			name:   "all negative",
			box:    NewBoundingBox(mgl64.Vec3{-2, -2, -2}, mgl64.Vec3{-1, -1, -1}),
			octant: NewOctant(false, false, false),
			clean:  true,
		},
		{
			name:   "mixed signs",
			box:    NewBoundingBox(mgl64.Vec3{1, -2, 1}, mgl64.Vec3{2, -1, 2}),
			octant: NewOctant(true, false, true),
			clean:  true,
		},
		{
			name:   "relative to origin",
			box:    NewBoundingBox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{2, 2, 2}),
			origin: mgl64.Vec3{3, 0, 0},
			octant: NewOctant(false, true, true),
			clean:  true,
		},
		{
			name: "straddling one axis",
			box:  NewBoundingBox(mgl64.Vec3{1, -1, 1}, mgl64.Vec3{2, 1, 2}),
		},
		{
			name: "touching zero is straddling",
			box:  NewBoundingBox(mgl64.Vec3{0, 1, 1}, mgl64.Vec3{1, 2, 2}),
		},
		{
			name: "ending at zero is straddling",
			box:  NewBoundingBox(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{0, 0, 0}),
		},
		{
			name: "degenerate box at zero",
			box:  NewBoundingBox(mgl64.Vec3{}, mgl64.Vec3{}),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			octant, clean := test.box.OctantRelativeTo(test.origin)
			require.Equal(t, test.clean, clean)
			require.Equal(t, test.octant, octant)
		})
	}
}

func TestBoundingBoxOctantRegion(t *testing.T) {
	parent := FromSizeOffset(64, mgl64.Vec3{0, 32, 0})

	t.Run("positive octant", func(t *testing.T) {
		region := parent.OctantRegion(NewOctant(true, true, true))
		require.Equal(t, mgl64.Vec3{0, 32, 0}, region.Min)
		require.Equal(t, mgl64.Vec3{32, 64, 32}, region.Max)
	})

	t.Run("negative octant", func(t *testing.T) {
		region := parent.OctantRegion(NewOctant(false, false, false))
		require.Equal(t, mgl64.Vec3{-32, 0, -32}, region.Min)
		require.Equal(t, mgl64.Vec3{0, 32, 0}, region.Max)
	})

	t.Run("octants split the volume in eight", func(t *testing.T) {
		for o := Octant(0); o < octantCount; o++ {
			region := parent.OctantRegion(o)
			require.Equal(t, mgl64.Vec3{32, 32, 32}, region.Size())

			_, clean := region.OctantRelativeTo(parent.Center())
			require.False(t, clean)

			octant, clean := FromSizeOffset(1, region.Center()).OctantRelativeTo(parent.Center())
			require.True(t, clean)
			require.Equal(t, o, octant)
		}
	})
}

func TestBoundingBoxIntersects(t *testing.T) {
	a := NewBoundingBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 2, 2})

	t.Run("overlapping boxes", func(t *testing.T) {
		b := NewBoundingBox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{3, 3, 3})
		require.True(t, a.Intersects(b))
		require.True(t, b.Intersects(a))
	})

	t.Run("nested boxes", func(t *testing.T) {
		b := NewBoundingBox(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{1, 1, 1})
		require.True(t, a.Intersects(b))
		require.True(t, b.Intersects(a))
	})

	t.Run("touching boxes do not intersect", func(t *testing.T) {
		b := NewBoundingBox(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{3, 2, 2})
		require.False(t, a.Intersects(b))
		require.False(t, b.Intersects(a))
	})

	t.Run("boxes apart on one axis", func(t *testing.T) {
		b := NewBoundingBox(mgl64.Vec3{1, 1, 5}, mgl64.Vec3{3, 3, 6})
		require.False(t, a.Intersects(b))
	})
}

func TestBoundingBoxContainsPoint(t *testing.T) {
	b := NewBoundingBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})

	t.Run("inner point", func(t *testing.T) {
		require.True(t, b.ContainsPoint(mgl64.Vec3{0.5, 0.5, 0.5}))
	})

	t.Run("points on faces and corners are contained", func(t *testing.T) {
		require.True(t, b.ContainsPoint(mgl64.Vec3{0, 0.5, 0.5}))
		require.True(t, b.ContainsPoint(mgl64.Vec3{1, 1, 1}))
		require.True(t, b.ContainsPoint(mgl64.Vec3{0, 0, 0}))
	})

	t.Run("point beyond max is not contained", func(t *testing.T) {
		// Deviates from a max < point comparison, which reports points beyond
		// max as contained and inner points as not contained.
		require.False(t, b.ContainsPoint(mgl64.Vec3{2, 2, 2}))
	})

	t.Run("point outside on one axis", func(t *testing.T) {
		require.False(t, b.ContainsPoint(mgl64.Vec3{0.5, -0.1, 0.5}))
	})
}

func TestBoundingBoxContainsBox(t *testing.T) {
	b := FromSize(4)

	t.Run("inner box", func(t *testing.T) {
		require.True(t, b.ContainsBox(FromSizeOffset(1, mgl64.Vec3{1, 1, 1})))
	})

	t.Run("box sharing faces is contained", func(t *testing.T) {
		require.True(t, b.ContainsBox(b))
		require.True(t, b.ContainsBox(NewBoundingBox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{2, 2, 2})))
	})

	t.Run("box crossing a face", func(t *testing.T) {
		require.False(t, b.ContainsBox(FromSizeOffset(1, mgl64.Vec3{2, 0, 0})))
	})

	t.Run("disjoint box", func(t *testing.T) {
		require.False(t, b.ContainsBox(FromSizeOffset(1, mgl64.Vec3{10, 10, 10})))
	})
}

func TestBoundingBoxRayIntersection(t *testing.T) {
	box := NewBoundingBox(mgl64.Vec3{-0.5, 9, -0.5}, mgl64.Vec3{0.5, 9.5, 0.5})

	t.Run("ray hits box from above", func(t *testing.T) {
		dist, ok := box.RayIntersection(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, -1, 0})
		require.True(t, ok)
		require.Equal(t, 0.5, dist)
	})

	t.Run("distance is in direction units", func(t *testing.T) {
		dist, ok := box.RayIntersection(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, -2, 0})
		require.True(t, ok)
		require.Equal(t, 0.25, dist)
	})

	t.Run("ray pointing away misses", func(t *testing.T) {
		_, ok := box.RayIntersection(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, 1, 0})
		require.False(t, ok)
	})

	t.Run("ray passing beside misses", func(t *testing.T) {
		_, ok := box.RayIntersection(mgl64.Vec3{2, 10, 0}, mgl64.Vec3{0, -1, 0})
		require.False(t, ok)
	})

	t.Run("ray from inside returns exit distance", func(t *testing.T) {
		dist, ok := box.RayIntersection(mgl64.Vec3{0, 9.25, 0}, mgl64.Vec3{0, 1, 0})
		require.True(t, ok)
		require.InDelta(t, 0.25, dist, 1e-9)
	})

	t.Run("box behind origin misses", func(t *testing.T) {
		_, ok := box.RayIntersection(mgl64.Vec3{0, 8, 0}, mgl64.Vec3{0, -1, 0})
		require.False(t, ok)
	})

	t.Run("diagonal ray", func(t *testing.T) {
		cube := FromSizeOffset(2, mgl64.Vec3{5, 5, 5})
		dir := mgl64.Vec3{1, 1, 1}.Normalize()

		dist, ok := cube.RayIntersection(mgl64.Vec3{}, dir)
		require.True(t, ok)
		require.InDelta(t, 4*math.Sqrt(3), dist, 1e-9)
	})

	t.Run("zero direction components do not panic", func(t *testing.T) {
		require.NotPanics(t, func() {
			box.RayIntersection(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{})
		})
	})

	t.Run("ray grazing a face misses", func(t *testing.T) {
		_, ok := box.RayIntersection(mgl64.Vec3{0.5, 10, 0}, mgl64.Vec3{0, -1, 0})
		require.False(t, ok)
	})
}

func TestBoundingBoxIsValid(t *testing.T) {
	t.Run("valid box", func(t *testing.T) {
		require.True(t, FromSize(1).IsValid())
	})

	t.Run("flat box is valid", func(t *testing.T) {
		require.True(t, BoundingBox{Max: mgl64.Vec3{1, 0, 1}}.IsValid())
	})

	t.Run("inverted box is not valid", func(t *testing.T) {
		b := BoundingBox{
			Min: mgl64.Vec3{0, 2, 0},
			Max: mgl64.Vec3{1, 1, 1},
		}
		require.False(t, b.IsValid())
	})

	t.Run("box with infinite or nan coordinates is not valid", func(t *testing.T) {
		b := BoundingBox{Max: mgl64.Vec3{math.Inf(1), 1, 1}}
		require.False(t, b.IsValid())

		b = BoundingBox{Min: mgl64.Vec3{math.NaN(), 0, 0}, Max: mgl64.Vec3{1, 1, 1}}
		require.False(t, b.IsValid())
	})
}
