// Package picking intersects view rays with the rectangular surfaces of gallery objects.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const parallelEpsilon = 1e-6

// Ray is a half-line in world space. Direction is expected to be unit length.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance d along the ray.
func (r Ray) At(d float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(d))
}

// Surface is a pickable rectangle lying in its local XY plane.
// Local +Z is the front-face normal; back faces are ignored unless DoubleSided is set.
type Surface struct {
	ID          int
	Center      mgl32.Vec3
	Orientation mgl32.Quat
	HalfWidth   float32
	HalfHeight  float32
	DoubleSided bool
}

// SurfaceAt builds a square surface offset along the local +Z of an object's pose,
// matching how artwork sits slightly proud of its frame.
//
// Parameters:
//   - id: the owning object's index
//   - position: the object position
//   - orientation: the object orientation
//   - offset: distance in front of the object origin
//   - size: the edge length of the square
//
// Returns:
//   - Surface: the pickable surface
func SurfaceAt(id int, position mgl32.Vec3, orientation mgl32.Quat, offset, size float32) Surface {
	return Surface{
		ID:          id,
		Center:      position.Add(orientation.Rotate(mgl32.Vec3{0, 0, offset})),
		Orientation: orientation,
		HalfWidth:   size / 2,
		HalfHeight:  size / 2,
	}
}

// Hit describes where a ray struck a surface.
type Hit struct {
	ID       int
	Distance float32
	Point    mgl32.Vec3
}

// Intersect tests the ray against a single surface.
//
// Parameters:
//   - s: the surface to test
//
// Returns:
//   - Hit: the intersection, valid only when ok is true
//   - bool: true if the ray strikes the surface in front of its origin
func (r Ray) Intersect(s Surface) (Hit, bool) {
	normal := s.Orientation.Rotate(mgl32.Vec3{0, 0, 1})
	denom := normal.Dot(r.Direction)
	if math.Abs(float64(denom)) < parallelEpsilon {
		return Hit{}, false
	}
	if denom > 0 && !s.DoubleSided {
		return Hit{}, false
	}

	d := normal.Dot(s.Center.Sub(r.Origin)) / denom
	if d < 0 {
		return Hit{}, false
	}

	p := r.At(d)
	local := s.Orientation.Conjugate().Rotate(p.Sub(s.Center))
	if math.Abs(float64(local.X())) > float64(s.HalfWidth) || math.Abs(float64(local.Y())) > float64(s.HalfHeight) {
		return Hit{}, false
	}
	return Hit{ID: s.ID, Distance: d, Point: p}, true
}

// Nearest returns the closest surface struck by the ray.
//
// Parameters:
//   - surfaces: the candidates
//
// Returns:
//   - Hit: the nearest intersection, valid only when ok is true
//   - bool: false when the ray misses every surface
func (r Ray) Nearest(surfaces []Surface) (Hit, bool) {
	var best Hit
	found := false
	for _, s := range surfaces {
		h, ok := r.Intersect(s)
		if !ok {
			continue
		}
		if !found || h.Distance < best.Distance {
			best = h
			found = true
		}
	}
	return best, found
}
