package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// WorldUp is the +Y axis shared by every look-at computation in the gallery.
var WorldUp = mgl32.Vec3{0, 1, 0}

// DepthRemap converts OpenGL clip space depth [-w, w] into the WebGPU range [0, w].
// Camera math stays in mgl32's GL convention; the renderer multiplies this in on upload.
var DepthRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Clamp restricts v to the closed range [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Damp moves x toward target with frame-rate independent exponential smoothing.
// A larger lambda converges faster. When x already equals target the result is exactly target.
//
// Parameters:
//   - x: the current value
//   - target: the value being approached
//   - lambda: the smoothing rate per second
//   - dt: the frame delta time in seconds
//
// Returns:
//   - float32: the smoothed value
func Damp(x, target, lambda, dt float32) float32 {
	return Lerp(x, target, 1-float32(math.Exp(float64(-lambda*dt))))
}

// WrapIndex maps any integer onto [0, n) with modular wraparound in both directions.
// Returns 0 when n is not positive.
func WrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// LookRotation returns the orientation whose local -Z axis points from eye toward target
// and whose local +Y axis is as close to up as possible.
// When eye and target coincide the identity rotation is returned.
//
// Parameters:
//   - eye: the position being oriented
//   - target: the point to face
//   - up: the reference up direction
//
// Returns:
//   - mgl32.Quat: the resulting rotation
func LookRotation(eye, target, up mgl32.Vec3) mgl32.Quat {
	z := eye.Sub(target)
	if z.Dot(z) == 0 {
		z = mgl32.Vec3{0, 0, 1}
	}
	z = z.Normalize()

	x := up.Cross(z)
	if x.Dot(x) == 0 {
		// up and z are parallel; nudge z so a basis still exists
		if math.Abs(float64(up.Z())) == 1 {
			z = mgl32.Vec3{z.X() + 0.0001, z.Y(), z.Z()}
		} else {
			z = mgl32.Vec3{z.X(), z.Y(), z.Z() + 0.0001}
		}
		z = z.Normalize()
		x = up.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)

	return mgl32.Mat4ToQuat(mgl32.Mat3FromCols(x, y, z).Mat4()).Normalize()
}

// Slerp spherically interpolates from a toward b along the shortest arc.
//
// Parameters:
//   - a: the starting rotation
//   - b: the destination rotation
//   - t: interpolation amount, 0 returns a and 1 returns b
//
// Returns:
//   - mgl32.Quat: the interpolated rotation
func Slerp(a, b mgl32.Quat, t float32) mgl32.Quat {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a, b, t).Normalize()
}

// EulerXYZ builds a rotation from intrinsic X, then Y, then Z angles in radians.
func EulerXYZ(x, y, z float32) mgl32.Quat {
	qx := mgl32.QuatRotate(x, mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(y, mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(z, mgl32.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz)
}

// LookDirection converts yaw and pitch into a unit view direction.
// Yaw 0 faces +Z; positive pitch tilts upward.
func LookDirection(yaw, pitch float32) mgl32.Vec3 {
	sy, cy := math.Sincos(float64(yaw))
	sp, cp := math.Sincos(float64(pitch))
	return mgl32.Vec3{float32(sy * cp), float32(sp), float32(cy * cp)}
}

// YawPitch recovers yaw and pitch from a view direction.
// The vertical component is clamped slightly inside [-1, 1] so pitch never reaches a pole.
func YawPitch(dir mgl32.Vec3) (yaw, pitch float32) {
	dir = dir.Normalize()
	yaw = float32(math.Atan2(float64(dir.X()), float64(dir.Z())))
	pitch = float32(math.Asin(float64(Clamp(dir.Y(), -0.999, 0.999))))
	return yaw, pitch
}
