package input

import (
	"fmt"
	"image"
	// decoders registration
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pipelined.dev/wvr/frame"
	"pipelined.dev/wvr/uniform"
)

// Picture is a still image decoded once at load.
type Picture struct {
	name    string
	buf     *frame.Buffer
	stopped bool
}

func (c PictureConfig) open(name string, e env) (Provider, error) {
	buf, err := LoadImage(ResolvePath(e.dir, c.Path), c.Width, c.Height)
	if err != nil {
		return nil, err
	}
	return NewPicture(name, buf), nil
}

// NewPicture returns provider of the buffer.
func NewPicture(name string, buf *frame.Buffer) *Picture {
	return &Picture{
		name: name,
		buf:  buf,
	}
}

// LoadImage decodes image file and scales it to provided size. Zero size
// keeps image dimensions.
func LoadImage(path string, width, height int) (*frame.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open picture: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode picture %v: %w", path, err)
	}
	return Scale(img, width, height), nil
}

// Scale converts image to buffer of provided size.
func Scale(img image.Image, width, height int) *frame.Buffer {
	b := img.Bounds()
	if width <= 0 || height <= 0 || (b.Dx() == width && b.Dy() == height) {
		return frame.FromImage(img)
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return frame.FromImage(dst)
}

// Name returns input name.
func (p *Picture) Name() string {
	return p.name
}

// Rename changes input name.
func (p *Picture) Rename(name string) {
	p.name = name
}

// Sample returns the picture.
func (p *Picture) Sample(_, _ float64) (uniform.Value, error) {
	if p.stopped {
		return nil, fmt.Errorf("picture %v: %w", p.name, ErrStopped)
	}
	return uniform.Texture{Buffer: p.buf}, nil
}

// SetProperty always fails, picture has no properties.
func (p *Picture) SetProperty(key string, _ interface{}) error {
	return fmt.Errorf("picture %v: %w: %v", p.name, ErrUnknownProperty, key)
}

// Play does nothing.
func (p *Picture) Play() {}

// Pause does nothing.
func (p *Picture) Pause() {}

// SetLocked does nothing.
func (p *Picture) SetLocked(bool) {}

// Stop releases the picture.
func (p *Picture) Stop() {
	p.stopped = true
	p.buf = nil
}
