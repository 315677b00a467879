// Package frame provides the pixel buffers exchanged between stages, inputs
// and the capture sink. It allows to:
//	- allocate and resize RGBA buffers
//	- convert RGBA buffers to tightly packed RGB
//	- convert between buffers and image.Image
package frame

import (
	"image"
	"image/color"
	"image/draw"
)

// BytesPerPixel is the size of one RGBA sample.
const BytesPerPixel = 4

// Buffer is an RGBA frame. Pix holds Width*Height samples, row by row,
// four bytes per pixel.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a black buffer of provided size.
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*BytesPerPixel),
	}
}

// Size returns number of pixels in the buffer.
func (b *Buffer) Size() int {
	if b == nil {
		return 0
	}
	return b.Width * b.Height
}

// Empty returns true if buffer has no pixels.
func (b *Buffer) Empty() bool {
	return b.Size() == 0
}

// Resize reallocates the buffer if dimensions change. Content is cleared
// when resized.
func (b *Buffer) Resize(width, height int) {
	if b.Width == width && b.Height == height {
		return
	}
	b.Width, b.Height = width, height
	size := width * height * BytesPerPixel
	if cap(b.Pix) >= size {
		b.Pix = b.Pix[:size]
		b.Clear()
		return
	}
	b.Pix = make([]uint8, size)
}

// Clear makes the buffer black and fully transparent.
func (b *Buffer) Clear() {
	for i := range b.Pix {
		b.Pix[i] = 0
	}
}

// Clone returns a deep copy of the buffer. Nil buffer returns nil.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{
		Width:  b.Width,
		Height: b.Height,
		Pix:    pix,
	}
}

// CopyFrom copies src into b, resizing b when needed.
func (b *Buffer) CopyFrom(src *Buffer) {
	b.Resize(src.Width, src.Height)
	copy(b.Pix, src.Pix)
}

// offset returns index of the first byte of pixel (x, y).
func (b *Buffer) offset(x, y int) int {
	return (y*b.Width + x) * BytesPerPixel
}

// RGBAAt returns pixel at (x, y). Out of bounds coordinates return
// transparent black.
func (b *Buffer) RGBAAt(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return color.RGBA{}
	}
	i := b.offset(x, y)
	return color.RGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// SetRGBA sets pixel at (x, y). Out of bounds coordinates are ignored.
func (b *Buffer) SetRGBA(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := b.offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = c.R, c.G, c.B, c.A
}

// Fill sets all pixels to c.
func (b *Buffer) Fill(c color.RGBA) {
	for i := 0; i < len(b.Pix); i += BytesPerPixel {
		b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// RGB drops alpha channel and packs the pixels tightly into dst. If dst
// is too small, new slice is allocated. Resulting slice is returned.
func (b *Buffer) RGB(dst []uint8) []uint8 {
	size := b.Size() * 3
	if cap(dst) < size {
		dst = make([]uint8, size)
	}
	dst = dst[:size]
	for i, j := 0, 0; j < size; i, j = i+BytesPerPixel, j+3 {
		dst[j], dst[j+1], dst[j+2] = b.Pix[i], b.Pix[i+1], b.Pix[i+2]
	}
	return dst
}

// Image returns the buffer as image.RGBA. The pixels are shared.
func (b *Buffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Width * BytesPerPixel,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// FromImage converts any image into a new buffer.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	b := New(bounds.Dx(), bounds.Dy())
	draw.Draw(b.Image(), b.Image().Rect, img, bounds.Min, draw.Src)
	return b
}
