package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-gallery/engine/game_object"
)

// Layer selects how the fragment shader colours a vertex.
type Layer float32

const (
	LayerFrame Layer = iota
	LayerMatting
	LayerArtwork
	LayerHighlight
)

// vertexStride is position (3) + uv (2) + layer (1) floats.
const vertexStride = 6 * 4

// Vertex is one corner of the frame mesh.
type Vertex struct {
	Position [3]float32
	UV       [2]float32
	Layer    Layer
}

// Mesh is the shared geometry every gallery object is drawn with.
// Opaque layers come first in Indices; the highlight occupies the tail from HighlightStart.
type Mesh struct {
	Vertices       []Vertex
	Indices        []uint32
	HighlightStart uint32
}

// NewFrameMesh builds the frame box, matting, artwork and highlight layers in object-local space.
//
// Returns:
//   - Mesh: the mesh
func NewFrameMesh() Mesh {
	var m Mesh
	h := game_object.FrameSize / 2
	d := game_object.FrameDepth / 2

	// box faces: front, back, left, right, top, bottom
	faces := [6][4][3]float32{
		{{-h, -h, d}, {h, -h, d}, {h, h, d}, {-h, h, d}},
		{{h, -h, -d}, {-h, -h, -d}, {-h, h, -d}, {h, h, -d}},
		{{-h, -h, -d}, {-h, -h, d}, {-h, h, d}, {-h, h, -d}},
		{{h, -h, d}, {h, -h, -d}, {h, h, -d}, {h, h, d}},
		{{-h, h, d}, {h, h, d}, {h, h, -d}, {-h, h, -d}},
		{{-h, -h, -d}, {h, -h, -d}, {h, -h, d}, {-h, -h, d}},
	}
	for _, f := range faces {
		m.quad(f, LayerFrame)
	}
	m.square(game_object.MattingSize, game_object.MattingOffset, LayerMatting)
	m.square(game_object.ArtworkSize, game_object.ArtworkOffset, LayerArtwork)

	m.HighlightStart = uint32(len(m.Indices))
	m.square(game_object.HighlightSize, game_object.HighlightOffset, LayerHighlight)
	return m
}

// square appends a size x size quad facing +Z at depth z.
func (m *Mesh) square(size, z float32, layer Layer) {
	s := size / 2
	m.quad([4][3]float32{{-s, -s, z}, {s, -s, z}, {s, s, z}, {-s, s, z}}, layer)
}

// quad appends four corners wound counter-clockwise, with uv (0,0) at the top-left.
func (m *Mesh) quad(corners [4][3]float32, layer Layer) {
	base := uint32(len(m.Vertices))
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	for i, c := range corners {
		m.Vertices = append(m.Vertices, Vertex{Position: c, UV: uvs[i], Layer: layer})
	}
	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
}

// VertexBytes packs the vertices for upload.
func (m Mesh) VertexBytes() []byte {
	buf := make([]byte, len(m.Vertices)*vertexStride)
	for i, v := range m.Vertices {
		o := i * vertexStride
		floats := [6]float32{v.Position[0], v.Position[1], v.Position[2], v.UV[0], v.UV[1], float32(v.Layer)}
		for j, f := range floats {
			binary.LittleEndian.PutUint32(buf[o+j*4:], math.Float32bits(f))
		}
	}
	return buf
}

// IndexBytes packs the indices for upload.
func (m Mesh) IndexBytes() []byte {
	buf := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
