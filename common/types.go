// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
// Produced off the frame tick by the texture decoder and consumed by the renderer.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// Valid reports whether the staged pixel buffer matches its declared dimensions.
func (t *TextureStagingData) Valid() bool {
	return t != nil && t.Width > 0 && t.Height > 0 && len(t.Pixels) == int(t.Width*t.Height*4)
}
