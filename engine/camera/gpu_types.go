package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-gallery/common"
)

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (112 bytes).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniform struct layout exactly (see GPUCameraUniformSource).
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset   0: depth-remapped view-projection matrix (mat4x4<f32>)
	CameraPosition [3]float32  // offset  64: world-space camera position (vec3<f32>)
	_pad           float32     // offset  76
	FogColor       [4]float32  // offset  80: linear fog colour, alpha unused
	FogNear        float32     // offset  96: distance where fog starts
	FogFar         float32     // offset 100: distance where fog is opaque
	_pad2          [2]float32  // offset 104: padding to 112 bytes
}

// NewGPUCameraUniform packs cam's current state into the uniform layout.
// The view-projection is remapped to the [0, 1] clip depth range WebGPU expects.
//
// Parameters:
//   - cam: the camera to read
//   - fogColor: the fog colour
//   - fogNear, fogFar: the fog distance band
//
// Returns:
//   - GPUCameraUniform: the packed uniform
func NewGPUCameraUniform(cam Camera, fogColor [4]float32, fogNear, fogFar float32) GPUCameraUniform {
	pos := cam.Position()
	return GPUCameraUniform{
		ViewProj:       common.DepthRemap.Mul4(cam.ViewProjectionMatrix()),
		CameraPosition: pos,
		FogColor:       fogColor,
		FogNear:        fogNear,
		FogFar:         fogFar,
	}
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (112)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[80+i*4:], math.Float32bits(g.FogColor[i]))
	}
	binary.LittleEndian.PutUint32(buf[96:], math.Float32bits(g.FogNear))
	binary.LittleEndian.PutUint32(buf[100:], math.Float32bits(g.FogFar))
	return buf
}
