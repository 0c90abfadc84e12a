package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	position    mgl32.Vec3
	orientation mgl32.Quat

	viewMatrix           mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4
	inverseViewProj      mgl32.Mat4
}

// Camera defines the interface for the perspective camera.
// The camera owns its pose (position + orientation) and recomputes its view and projection
// matrices whenever the pose or lens settings change. Matrices follow the OpenGL clip
// convention; renderers targeting a [0, 1] depth range apply common.DepthRemap.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the camera position
	Position() mgl32.Vec3

	// Orientation returns the camera's world-space rotation. The camera looks down its local -Z.
	//
	// Returns:
	//   - mgl32.Quat: the camera orientation
	Orientation() mgl32.Quat

	// Forward returns the unit view direction.
	//
	// Returns:
	//   - mgl32.Vec3: the direction the camera faces
	Forward() mgl32.Vec3

	// ViewMatrix returns the current world-to-view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current perspective projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - mgl32.Mat4: the combined view-projection matrix
	ViewProjectionMatrix() mgl32.Mat4

	// Project transforms a world-space point into normalized device coordinates.
	//
	// Parameters:
	//   - world: the point to project
	//
	// Returns:
	//   - mgl32.Vec3: NDC x, y and depth, each in [-1, 1] when the point is inside the frustum
	//   - bool: false when the point lies on or behind the camera plane
	Project(world mgl32.Vec3) (mgl32.Vec3, bool)

	// Ray returns a world-space ray from the camera through a point in normalized device coordinates.
	//
	// Parameters:
	//   - x, y: NDC coordinates, (0, 0) being the viewport centre and +y up
	//
	// Returns:
	//   - mgl32.Vec3: the ray origin (camera position)
	//   - mgl32.Vec3: the unit ray direction
	Ray(x, y float32) (mgl32.Vec3, mgl32.Vec3)

	// SetFov sets the vertical field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetPosition moves the camera and recomputes matrices.
	//
	// Parameters:
	//   - position: the new world-space position
	SetPosition(position mgl32.Vec3)

	// SetOrientation rotates the camera and recomputes matrices.
	//
	// Parameters:
	//   - orientation: the new world-space rotation
	SetOrientation(orientation mgl32.Quat)

	// SetPose sets position and orientation together with a single matrix update.
	//
	// Parameters:
	//   - position: the new world-space position
	//   - orientation: the new world-space rotation
	SetPose(position mgl32.Vec3, orientation mgl32.Quat)

	// LookAt orients the camera toward a world-space target with +Y up.
	//
	// Parameters:
	//   - target: the point to face
	LookAt(target mgl32.Vec3)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera at the origin looking down -Z.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:          &sync.Mutex{},
		fov:         55.0 * (math.Pi / 180.0),
		aspect:      16.0 / 9.0,
		near:        0.1,
		far:         120.0,
		orientation: mgl32.QuatIdent(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Orientation() mgl32.Quat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation.Rotate(mgl32.Vec3{0, 0, -1}).Normalize()
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Project(world mgl32.Vec3) (mgl32.Vec3, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clip := c.viewProjectionMatrix.Mul4x1(world.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec3{0, 0, 2}, false
	}
	return clip.Vec3().Mul(1 / clip.W()), true
}

func (c *cameraImpl) Ray(x, y float32) (mgl32.Vec3, mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	near := c.unproject(mgl32.Vec3{x, y, -1})
	far := c.unproject(mgl32.Vec3{x, y, 1})
	return c.position, far.Sub(near).Normalize()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetPosition(position mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.updateMatrices()
}

func (c *cameraImpl) SetOrientation(orientation mgl32.Quat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orientation = orientation
	c.updateMatrices()
}

func (c *cameraImpl) SetPose(position mgl32.Vec3, orientation mgl32.Quat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.orientation = orientation
	c.updateMatrices()
}

func (c *cameraImpl) LookAt(target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orientation = common.LookRotation(c.position, target, common.WorldUp)
	c.updateMatrices()
}

// unproject maps an NDC point back to world space. Caller must hold the mutex.
func (c *cameraImpl) unproject(ndc mgl32.Vec3) mgl32.Vec3 {
	w := c.inverseViewProj.Mul4x1(ndc.Vec4(1))
	return w.Vec3().Mul(1 / w.W())
}

// updateMatrices recalculates the view, projection, view-projection and inverse matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	model := mgl32.Translate3D(c.position.X(), c.position.Y(), c.position.Z()).Mul4(c.orientation.Mat4())
	c.viewMatrix = model.Inv()
	c.projectionMatrix = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.inverseViewProj = c.viewProjectionMatrix.Inv()
}
