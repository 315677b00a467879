package software

import (
	"image/color"
	"math"

	"pipelined.dev/wvr/graph"
	"pipelined.dev/wvr/uniform"
)

// Names of built-in filters.
const (
	Solid       = "solid"
	Passthrough = "passthrough"
	Mix         = "mix"
	Invert      = "invert"
	Feedback    = "feedback"
)

func registerBuiltins(c *Catalog) {
	c.Register(Solid, solid,
		graph.UniformSpec{Name: "color", Kind: uniform.KindVec4, Default: uniform.Vec4{0, 0, 0, 1}},
	)
	c.Register(Passthrough, passthrough)
	c.Register(Mix, mix,
		graph.UniformSpec{Name: "amount", Kind: uniform.KindFloat, Default: uniform.Float(0.5)},
	)
	c.Register(Invert, invert)
	c.Register(Feedback, feedback,
		graph.UniformSpec{Name: "decay", Kind: uniform.KindFloat, Default: uniform.Float(0.9)},
	)
}

// solid fills target with color uniform.
func solid(p *graph.Pass) error {
	c, _ := p.Uniforms["color"].(uniform.Vec4)
	p.Target.Fill(color.RGBA{
		R: unit(c[0]),
		G: unit(c[1]),
		B: unit(c[2]),
		A: unit(c[3]),
	})
	return nil
}

// passthrough copies "input" texture.
func passthrough(p *graph.Pass) error {
	return eachPixel(p, func(x, y int, u, v float64) color.RGBA {
		return Sample(p.Textures["input"], u, v)
	})
}

// invert negates colors of "input" texture.
func invert(p *graph.Pass) error {
	return eachPixel(p, func(x, y int, u, v float64) color.RGBA {
		c := Sample(p.Textures["input"], u, v)
		return color.RGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A}
	})
}

// mix blends "a" and "b" textures by amount.
func mix(p *graph.Pass) error {
	amount, _ := p.Uniforms["amount"].(uniform.Float)
	t := clamp(float64(amount))
	return eachPixel(p, func(x, y int, u, v float64) color.RGBA {
		return blend(Sample(p.Textures["a"], u, v), Sample(p.Textures["b"], u, v), t)
	})
}

// feedback adds "input" to the decayed "previous" texture.
func feedback(p *graph.Pass) error {
	decay, _ := p.Uniforms["decay"].(uniform.Float)
	d := clamp(float64(decay))
	return eachPixel(p, func(x, y int, u, v float64) color.RGBA {
		in, prev := Sample(p.Textures["input"], u, v), Sample(p.Textures["previous"], u, v)
		add := func(a, b uint8) uint8 {
			return unit(float64(a)/255 + float64(b)/255*d)
		}
		return color.RGBA{R: add(in.R, prev.R), G: add(in.G, prev.G), B: add(in.B, prev.B), A: 255}
	})
}

// eachPixel sets every target pixel with the result of fn called with
// normalized coordinates of the pixel center.
func eachPixel(p *graph.Pass, fn func(x, y int, u, v float64) color.RGBA) error {
	t := p.Target
	for y := 0; y < t.Height; y++ {
		v := (float64(y) + 0.5) / float64(t.Height)
		for x := 0; x < t.Width; x++ {
			u := (float64(x) + 0.5) / float64(t.Width)
			t.SetRGBA(x, y, fn(x, y, u, v))
		}
	}
	return nil
}

// Sample fetches texture color at normalized coordinates. Nil texture is
// black. Mipmapped sampling is treated as linear.
func Sample(t graph.Texture, u, v float64) color.RGBA {
	b := t.Buffer
	if b.Empty() {
		return color.RGBA{A: 255}
	}
	x, y := u*float64(b.Width)-0.5, v*float64(b.Height)-0.5
	if t.Mode == graph.Nearest {
		return b.RGBAAt(clampInt(int(math.Round(x)), b.Width), clampInt(int(math.Round(y)), b.Height))
	}
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	at := func(dx, dy int) color.RGBA {
		return b.RGBAAt(clampInt(int(x0)+dx, b.Width), clampInt(int(y0)+dy, b.Height))
	}
	top := blend(at(0, 0), at(1, 0), fx)
	bottom := blend(at(0, 1), at(1, 1), fx)
	return blend(top, bottom, fy)
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

func unit(f float64) uint8 {
	return uint8(math.Round(clamp(f) * 255))
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func clampInt(i, size int) int {
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}
