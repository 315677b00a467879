package frame

import (
	"image"
	"image/color"
)

// RGB is a tightly packed RGB image, three bytes per pixel. It implements
// image.Image so packed frames can be passed to image encoders.
type RGB struct {
	Pix    []uint8
	Width  int
	Height int
}

// ColorModel implements image.Image.
func (RGB) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (r RGB) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// At implements image.Image.
func (r RGB) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return color.RGBA{}
	}
	i := (y*r.Width + x) * 3
	return color.RGBA{R: r.Pix[i], G: r.Pix[i+1], B: r.Pix[i+2], A: 0xff}
}
