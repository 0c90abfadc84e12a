package game_object

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/Carmen-Shannon/oxy-gallery/engine/labels"
	"github.com/Carmen-Shannon/oxy-gallery/engine/orbit"
	"github.com/Carmen-Shannon/oxy-gallery/engine/picking"
	"github.com/go-gl/mathgl/mgl32"
)

// Frame geometry in object-local units. Each layer is a square in the local XY plane,
// stacked along +Z, which faces the gallery centre. The highlight sits just behind the
// frame so only its rim shows around the edge.
const (
	FrameSize       float32 = 1.8
	FrameDepth      float32 = 0.12
	MattingSize     float32 = 1.66
	MattingOffset   float32 = 0.065
	ArtworkSize     float32 = 1.48
	ArtworkOffset   float32 = 0.072
	HighlightSize   float32 = 1.86
	HighlightOffset float32 = -0.061
)

// Placeholder artwork colours, alternated by index so neighbours stay distinguishable.
var (
	PlaceholderEven = [3]float32{0x10 / 255.0, 0x10 / 255.0, 0x10 / 255.0}
	PlaceholderOdd  = [3]float32{0x0e / 255.0, 0x0e / 255.0, 0x0e / 255.0}
)

type gameObject struct {
	index   int
	title   string
	source  string
	enabled atomic.Bool

	position    mgl32.Vec3
	orientation mgl32.Quat
	motion      *orbit.Motion
	posed       bool

	highlight float32
	texture   *common.TextureStagingData
}

// GameObject is one framed artwork in the gallery.
// It is owned by the frame tick; none of its methods are safe for concurrent use except Enabled.
type GameObject interface {
	// Index returns the object's stable position in content order.
	//
	// Returns:
	//   - int: the object index
	Index() int

	// Title returns the caption shown on the object's label. Empty means no label.
	//
	// Returns:
	//   - string: the caption
	Title() string

	// Source returns the image URL or path, or "" when the object has no artwork.
	//
	// Returns:
	//   - string: the image source
	Source() string

	// Enabled reports whether the object passed the last visibility test.
	//
	// Returns:
	//   - bool: true if the object should be drawn
	Enabled() bool

	// SetEnabled sets whether the object is drawn.
	//
	// Parameters:
	//   - enabled: true to draw
	SetEnabled(enabled bool)

	// Position returns the object's world position.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Orientation returns the object's world orientation.
	//
	// Returns:
	//   - mgl32.Quat: the orientation
	Orientation() mgl32.Quat

	// SetPose replaces the object's transform.
	//
	// Parameters:
	//   - position: the world position
	//   - orientation: the world orientation
	SetPose(position mgl32.Vec3, orientation mgl32.Quat)

	// Forward returns the object's local +Z in world space, the side the artwork faces.
	//
	// Returns:
	//   - mgl32.Vec3: unit facing direction
	Forward() mgl32.Vec3

	// Motion returns the orbit state driving the object, or nil for a static object.
	//
	// Returns:
	//   - *orbit.Motion: the orbit state
	Motion() *orbit.Motion

	// Advance steps the orbit for the frame at now. Frozen objects keep their pose.
	//
	// Parameters:
	//   - now: the global clock in seconds
	//   - freeze: whether the object must hold still this frame
	Advance(now float32, freeze bool)

	// Highlight returns the hover highlight level in [0, 1].
	//
	// Returns:
	//   - float32: the highlight level
	Highlight() float32

	// DampHighlight eases the highlight toward 1 when hovered and toward 0 otherwise.
	//
	// Parameters:
	//   - hovered: whether the object is under the pointer this frame
	//   - lambda: the damping rate
	//   - dt: the frame delta in seconds
	DampHighlight(hovered bool, lambda, dt float32)

	// ResetHighlight clears the highlight immediately.
	ResetHighlight()

	// Surface returns the pickable artwork rectangle at the current pose.
	//
	// Returns:
	//   - picking.Surface: the artwork surface
	Surface() picking.Surface

	// Anchor returns the label attachment point at the current pose.
	//
	// Returns:
	//   - labels.Anchor: the anchor
	Anchor() labels.Anchor

	// Texture returns the staged artwork pixels, or nil while the placeholder is shown.
	//
	// Returns:
	//   - *common.TextureStagingData: the staged pixels or nil
	Texture() *common.TextureStagingData

	// SetTexture attaches decoded artwork. Invalid data is ignored.
	//
	// Parameters:
	//   - data: the decoded pixels
	//
	// Returns:
	//   - bool: true if the texture was attached
	SetTexture(data common.TextureStagingData) bool

	// Placeholder returns the flat colour drawn until the artwork arrives.
	//
	// Returns:
	//   - [3]float32: linear RGB
	Placeholder() [3]float32

	// ModelMatrix returns the object's local-to-world transform.
	//
	// Returns:
	//   - mgl32.Mat4: the model matrix
	ModelMatrix() mgl32.Mat4

	// Dispose drops the staged texture.
	Dispose()
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject configured with the given options.
// When a motion is supplied and no pose is, the object starts at the motion's initial pose.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		orientation: mgl32.QuatIdent(),
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	if obj.motion != nil && !obj.posed {
		obj.position, obj.orientation = obj.motion.Initial()
	}
	return obj
}

func (g *gameObject) Index() int {
	return g.index
}

func (g *gameObject) Title() string {
	return g.title
}

func (g *gameObject) Source() string {
	return g.source
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Position() mgl32.Vec3 {
	return g.position
}

func (g *gameObject) Orientation() mgl32.Quat {
	return g.orientation
}

func (g *gameObject) SetPose(position mgl32.Vec3, orientation mgl32.Quat) {
	g.position = position
	g.orientation = orientation
}

func (g *gameObject) Forward() mgl32.Vec3 {
	return g.orientation.Rotate(mgl32.Vec3{0, 0, 1}).Normalize()
}

func (g *gameObject) Motion() *orbit.Motion {
	return g.motion
}

func (g *gameObject) Advance(now float32, freeze bool) {
	if g.motion == nil {
		return
	}
	g.position, g.orientation = g.motion.Update(now, freeze, g.position, g.orientation)
}

func (g *gameObject) Highlight() float32 {
	return g.highlight
}

func (g *gameObject) DampHighlight(hovered bool, lambda, dt float32) {
	var target float32
	if hovered {
		target = 1
	}
	g.highlight = common.Damp(g.highlight, target, lambda, dt)
}

func (g *gameObject) ResetHighlight() {
	g.highlight = 0
}

func (g *gameObject) Surface() picking.Surface {
	return picking.SurfaceAt(g.index, g.position, g.orientation, ArtworkOffset, ArtworkSize)
}

func (g *gameObject) Anchor() labels.Anchor {
	return labels.Anchor{
		Index:    g.index,
		Position: g.position,
		HasText:  g.title != "",
	}
}

func (g *gameObject) Texture() *common.TextureStagingData {
	return g.texture
}

func (g *gameObject) SetTexture(data common.TextureStagingData) bool {
	if !data.Valid() {
		return false
	}
	g.texture = &data
	return true
}

func (g *gameObject) Placeholder() [3]float32 {
	if g.index%2 == 0 {
		return PlaceholderEven
	}
	return PlaceholderOdd
}

func (g *gameObject) ModelMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(g.position.X(), g.position.Y(), g.position.Z()).Mul4(g.orientation.Mat4())
}

func (g *gameObject) Dispose() {
	g.texture = nil
}
