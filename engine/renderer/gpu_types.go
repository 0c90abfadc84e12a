package renderer

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-gallery/engine/scene"
)

// GPUItemUniform is the per-object uniform block read by both shader stages.
// Matches the WGSL ItemUniform struct in assets/gallery.wgsl (96 bytes).
type GPUItemUniform struct {
	Model       [16]float32 // offset  0: object-to-world matrix
	Highlight   float32     // offset 64: hover highlight in [0, 1]
	HasTexture  float32     // offset 68: 1 when the artwork texture is bound
	Strength    float32     // offset 72: highlight opacity at full hover
	_pad        float32     // offset 76
	Placeholder [4]float32  // offset 80: sRGB placeholder colour, alpha unused
}

// NewGPUItemUniform packs one frame item.
//
// Parameters:
//   - item: the draw list entry
//   - strength: highlight opacity at full hover
//
// Returns:
//   - GPUItemUniform: the packed uniform
func NewGPUItemUniform(item scene.FrameItem, strength float32) GPUItemUniform {
	u := GPUItemUniform{
		Model:     item.Model,
		Highlight: item.Highlight,
		Strength:  strength,
		Placeholder: [4]float32{
			item.Placeholder[0], item.Placeholder[1], item.Placeholder[2], 1,
		},
	}
	if item.Texture.Valid() {
		u.HasTexture = 1
	}
	return u
}

// Size returns the size of the GPUItemUniform struct in bytes.
func (g *GPUItemUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
func (g *GPUItemUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(g.Highlight))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(g.HasTexture))
	binary.LittleEndian.PutUint32(buf[72:], math.Float32bits(g.Strength))
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[80+i*4:], math.Float32bits(g.Placeholder[i]))
	}
	return buf
}

// SRGBToLinear converts an 8-bit sRGB channel to linear light.
func SRGBToLinear(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
