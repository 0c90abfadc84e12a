package picking

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// facingOrigin returns a surface at z = -dist whose front face looks back at the origin.
func facingOrigin(id int, x, dist float32) Surface {
	return Surface{
		ID:          id,
		Center:      mgl32.Vec3{x, 0, -dist},
		Orientation: mgl32.QuatIdent(),
		HalfWidth:   0.74,
		HalfHeight:  0.74,
	}
}

var forward = Ray{Origin: mgl32.Vec3{}, Direction: mgl32.Vec3{0, 0, -1}}

func TestSingleHit(t *testing.T) {
	h, ok := forward.Nearest([]Surface{facingOrigin(3, 0, 5), facingOrigin(4, 4, 5)})
	require.True(t, ok)
	assert.Equal(t, 3, h.ID)
	assert.InDelta(t, 5, h.Distance, 1e-5)
}

func TestMissClearsHover(t *testing.T) {
	_, ok := forward.Nearest([]Surface{facingOrigin(1, 3, 5), facingOrigin(2, -3, 5)})
	assert.False(t, ok)
	_, ok = forward.Nearest(nil)
	assert.False(t, ok)
}

func TestNearestOfSeveral(t *testing.T) {
	h, ok := forward.Nearest([]Surface{facingOrigin(1, 0, 9), facingOrigin(2, 0.3, 4), facingOrigin(3, 0, 6)})
	require.True(t, ok)
	assert.Equal(t, 2, h.ID)
}

func TestBackFaceAndBehindIgnored(t *testing.T) {
	flipped := facingOrigin(1, 0, 5)
	flipped.Orientation = mgl32.QuatRotate(math.Pi, mgl32.Vec3{0, 1, 0})
	_, ok := forward.Intersect(flipped)
	assert.False(t, ok)

	flipped.DoubleSided = true
	_, ok = forward.Intersect(flipped)
	assert.True(t, ok)

	behind := facingOrigin(2, 0, -5)
	_, ok = forward.Intersect(behind)
	assert.False(t, ok)
}

func TestRotatedSurfaceBounds(t *testing.T) {
	s := facingOrigin(1, 0, 5)
	s.Orientation = mgl32.QuatRotate(math.Pi/4, mgl32.Vec3{0, 0, 1})
	// the corner region of an axis-aligned square is outside the rotated one
	corner := Ray{Origin: mgl32.Vec3{0.7, 0.7, 0}, Direction: mgl32.Vec3{0, 0, -1}}
	_, ok := corner.Intersect(s)
	assert.False(t, ok)

	edge := Ray{Origin: mgl32.Vec3{0, 0.95, 0}, Direction: mgl32.Vec3{0, 0, -1}}
	_, ok = edge.Intersect(s)
	assert.True(t, ok)
}

func TestSurfaceAtOffsetsAlongFront(t *testing.T) {
	rot := mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0})
	s := SurfaceAt(7, mgl32.Vec3{1, 2, 3}, rot, 0.072, 1.48)
	assert.InDelta(t, 1.072, s.Center.X(), 1e-5)
	assert.InDelta(t, 3, s.Center.Z(), 1e-5)
	assert.Equal(t, float32(0.74), s.HalfWidth)
	assert.Equal(t, 7, s.ID)
}
