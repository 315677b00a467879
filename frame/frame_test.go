package frame_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/wvr/frame"
)

func TestResize(t *testing.T) {
	b := frame.New(2, 2)
	b.Fill(color.RGBA{R: 1, G: 2, B: 3, A: 4})
	b.Resize(2, 2)
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 4}, b.RGBAAt(1, 1), "same size keeps content")

	b.Resize(3, 1)
	assert.Equal(t, 3, b.Size())
	assert.Len(t, b.Pix, 3*frame.BytesPerPixel)
	assert.Equal(t, color.RGBA{}, b.RGBAAt(0, 0))

	b.Resize(4, 4)
	assert.Len(t, b.Pix, 16*frame.BytesPerPixel)
}

func TestRGB(t *testing.T) {
	b := frame.New(2, 1)
	b.SetRGBA(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 40})
	b.SetRGBA(1, 0, color.RGBA{R: 50, G: 60, B: 70, A: 80})

	rgb := b.RGB(nil)
	assert.Equal(t, []uint8{10, 20, 30, 50, 60, 70}, rgb)

	// reuse of destination
	dst := make([]uint8, 0, 16)
	rgb = b.RGB(dst)
	assert.Equal(t, 6, len(rgb))
	assert.Same(t, &dst[:1][0], &rgb[0])

	img := frame.RGB{Pix: rgb, Width: 2, Height: 1}
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
	assert.Equal(t, color.RGBA{R: 50, G: 60, B: 70, A: 0xff}, img.At(1, 0))
	assert.Equal(t, color.RGBA{}, img.At(2, 0))
}

func TestCloneAndImage(t *testing.T) {
	b := frame.New(3, 2)
	b.SetRGBA(2, 1, color.RGBA{R: 255, A: 255})
	c := b.Clone()
	c.SetRGBA(2, 1, color.RGBA{G: 255, A: 255})
	assert.Equal(t, color.RGBA{R: 255, A: 255}, b.RGBAAt(2, 1), "clone must not share pixels")

	back := frame.FromImage(b.Image())
	assert.Equal(t, b.Pix, back.Pix)

	var nilBuffer *frame.Buffer
	assert.Nil(t, nilBuffer.Clone())
	assert.True(t, nilBuffer.Empty())
}
