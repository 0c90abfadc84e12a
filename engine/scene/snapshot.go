package scene

import (
	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/Carmen-Shannon/oxy-gallery/engine/camera"
	"github.com/Carmen-Shannon/oxy-gallery/engine/labels"
	"github.com/Carmen-Shannon/oxy-gallery/engine/view"
	"github.com/go-gl/mathgl/mgl32"
)

// Snapshot is the observable state published at the end of every tick.
// A published snapshot is never mutated; readers on other goroutines may hold it freely.
type Snapshot struct {
	Generation uint64         `json:"generation"`
	Tick       uint64         `json:"tick"`
	View       view.State     `json:"view"`
	Focus      int            `json:"focus"`
	Hovered    int            `json:"hovered"`
	Ready      bool           `json:"ready"`
	Locked     bool           `json:"locked"`
	Loaded     int            `json:"loaded"`
	Count      int            `json:"count"`
	Labels     []labels.Label `json:"labels"`
}

// FrameItem is one object as the renderer draws it.
type FrameItem struct {
	Index       int
	Model       mgl32.Mat4
	Highlight   float32
	Placeholder [3]float32
	// Texture is nil until the artwork has loaded. The pointer is stable once set.
	Texture *common.TextureStagingData
}

// Frame is everything the renderer needs for one draw, captured at the end of a tick.
type Frame struct {
	Generation uint64
	Tick       uint64
	Camera     camera.GPUCameraUniform
	Items      []FrameItem
}
