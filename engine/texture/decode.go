package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/Carmen-Shannon/oxy-gallery/common"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned when a payload does not sniff as an image.
var ErrNotImage = errors.New("texture: payload is not an image")

// Decode sniffs, decodes and converts an encoded image into RGBA staging data.
// Images whose longest side exceeds maxDim are downscaled with Catmull-Rom filtering.
// A maxDim <= 0 disables scaling.
//
// Parameters:
//   - data: the encoded image bytes
//   - maxDim: the maximum width or height of the result
//
// Returns:
//   - common.TextureStagingData: tightly packed RGBA pixels
//   - error: ErrNotImage for non-image payloads, or the decoder error
func Decode(data []byte, maxDim int) (common.TextureStagingData, error) {
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		return common.TextureStagingData{}, fmt.Errorf("%w (detected %s)", ErrNotImage, kind.MIME.Value)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("texture: decode: %w", err)
	}

	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return common.TextureStagingData{}, fmt.Errorf("texture: decode %s: empty image", format)
	}

	w, h := fit(b.Dx(), b.Dy(), maxDim)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	}

	return common.TextureStagingData{
		Pixels: dst.Pix,
		Width:  uint32(w),
		Height: uint32(h),
	}, nil
}

// fit scales (w, h) so the longest side is at most maxDim, keeping the aspect ratio.
func fit(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	if w >= h {
		return maxDim, max(1, h*maxDim/w)
	}
	return max(1, w*maxDim/h), maxDim
}
