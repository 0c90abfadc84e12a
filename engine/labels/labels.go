// Package labels projects object anchors into pixel positions for the overlay captions.
package labels

import (
	"math"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Projector is the subset of the camera label projection needs.
type Projector interface {
	Position() mgl32.Vec3
	Project(world mgl32.Vec3) (mgl32.Vec3, bool)
}

// Anchor is one object's label attachment point.
type Anchor struct {
	Index    int
	Position mgl32.Vec3
	// HasText is false for objects without a caption; their labels stay hidden.
	HasText bool
}

// Label is the computed overlay placement for one object.
// Hidden labels keep their last coordinates but carry Visible=false so the overlay retracts them.
type Label struct {
	Index   int     `json:"index"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Offset  float32 `json:"offset"`
	Visible bool    `json:"visible"`
}

// Layout holds the distance-to-offset mapping.
type Layout struct {
	OffsetScale float32
	MinOffset   float32
	MaxOffset   float32
}

// DefaultLayout returns the gallery's label spacing.
func DefaultLayout() Layout {
	return Layout{OffsetScale: 420, MinOffset: 18, MaxOffset: 72}
}

// Offset returns the vertical pixel offset for a label at the given camera distance.
func (l Layout) Offset(distance float32) float32 {
	return common.Clamp(l.OffsetScale/max(distance, 1e-4), l.MinOffset, l.MaxOffset)
}

// Frame describes the view a label pass runs against.
type Frame struct {
	Width, Height float32
	// Gallery is true only when the view state allows labels at all.
	Gallery bool
	// Focus is the active object whose label is always suppressed, or a negative value for none.
	Focus int
}

// Update recomputes labels for anchors in place. out is resized to len(anchors) and entries are
// matched by position, so a label visible on a previous frame is explicitly hidden when it fails.
//
// Parameters:
//   - cam: the camera to project through
//   - anchors: the label anchors in object order
//   - frame: the viewport and view state
//   - out: the label slice to reuse
//
// Returns:
//   - []Label: the updated labels
func (l Layout) Update(cam Projector, anchors []Anchor, frame Frame, out []Label) []Label {
	if cap(out) < len(anchors) {
		out = make([]Label, len(anchors))
	}
	out = out[:len(anchors)]

	eye := cam.Position()
	for i, a := range anchors {
		lbl := &out[i]
		lbl.Index = a.Index
		lbl.Visible = false

		if !a.HasText || a.Index == frame.Focus {
			continue
		}
		ndc, inFront := cam.Project(a.Position)
		if !inFront || !(ndc.Z() > -1 && ndc.Z() < 1) || math.IsNaN(float64(ndc.X())) {
			continue
		}

		lbl.X = (ndc.X()*0.5 + 0.5) * frame.Width
		lbl.Y = (-ndc.Y()*0.5 + 0.5) * frame.Height
		lbl.Offset = l.Offset(eye.Sub(a.Position).Len())
		lbl.Visible = frame.Gallery
	}
	return out
}
