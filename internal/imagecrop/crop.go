// Package imagecrop implements the region-selection pipeline: normalizing a
// user-drawn rectangle into fractional image coordinates and rasterizing the
// corresponding sub-image at natural resolution. Providers only understand
// whole-image edits, so the crop is what disambiguates "this sub-region" from a
// free-text spatial description.
package imagecrop

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"

	"neurodesign-backend/internal/models"
)

// MinSelectionPixels is the smallest selection edge, in device pixels, that
// counts as a deliberate rectangle rather than a stray click.
const MinSelectionPixels = 5

// ScreenRect is a drawn selection in device pixels, viewport-relative.
type ScreenRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// RenderedBounds is the on-screen bounding box of the displayed image.
type RenderedBounds struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// NormalizeRegion converts a screen-space selection into fractional image
// coordinates independent of zoom and scroll. Selections fully outside the
// rendered image, or smaller than MinSelectionPixels on either edge, yield no
// region.
func NormalizeRegion(sel ScreenRect, img RenderedBounds) (*models.Region, bool) {
	if img.Width <= 0 || img.Height <= 0 {
		return nil, false
	}
	if sel.Width < MinSelectionPixels || sel.Height < MinSelectionPixels {
		return nil, false
	}

	// Intersect with the rendered image before normalizing.
	left := max(sel.X, img.Left)
	top := max(sel.Y, img.Top)
	right := min(sel.X+sel.Width, img.Left+img.Width)
	bottom := min(sel.Y+sel.Height, img.Top+img.Height)
	if right <= left || bottom <= top {
		return nil, false
	}

	return &models.Region{
		X:      (left - img.Left) / img.Width,
		Y:      (top - img.Top) / img.Height,
		Width:  (right - left) / img.Width,
		Height: (bottom - top) / img.Height,
	}, true
}

// Crop rasterizes the fractional region from the original image bytes and
// returns it re-encoded as PNG, along with the crop's pixel dimensions.
func Crop(imageBytes []byte, region models.Region) ([]byte, int, int, error) {
	img, err := decodeImage(imageBytes)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode source image: %w", err)
	}

	bounds := img.Bounds()
	naturalW := bounds.Dx()
	naturalH := bounds.Dy()

	x0 := bounds.Min.X + int(region.X*float64(naturalW))
	y0 := bounds.Min.Y + int(region.Y*float64(naturalH))
	x1 := x0 + int(region.Width*float64(naturalW))
	y1 := y0 + int(region.Height*float64(naturalH))

	x0 = clampInt(x0, bounds.Min.X, bounds.Max.X)
	y0 = clampInt(y0, bounds.Min.Y, bounds.Max.Y)
	x1 = clampInt(x1, bounds.Min.X, bounds.Max.X)
	y1 = clampInt(y1, bounds.Min.Y, bounds.Max.Y)

	if x1 <= x0 || y1 <= y0 {
		return nil, 0, 0, fmt.Errorf("region resolves to an empty crop")
	}

	cropRect := image.Rect(x0, y0, x1, y1)
	out := image.NewRGBA(image.Rect(0, 0, cropRect.Dx(), cropRect.Dy()))
	draw.Draw(out, out.Bounds(), img, cropRect.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode crop: %w", err)
	}

	return buf.Bytes(), cropRect.Dx(), cropRect.Dy(), nil
}

func decodeImage(data []byte) (image.Image, error) {
	if isWebP(data) {
		return webp.Decode(bytes.NewReader(data), &decoder.Options{})
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WEBP"))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
