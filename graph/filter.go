package graph

import (
	"fmt"
	"strings"

	"pipelined.dev/wvr/frame"
	"pipelined.dev/wvr/uniform"
)

type (
	// UniformSpec declares a variable accepted by a filter.
	UniformSpec struct {
		Name    string
		Kind    uniform.Kind
		Default uniform.Value
	}

	// FilterSource is a filter program resolved from catalog: shader source
	// and its declared uniform schema.
	FilterSource struct {
		Name     string
		Source   string
		Uniforms []UniformSpec
	}

	// Catalog resolves filters by name.
	Catalog interface {
		Resolve(name string) (FilterSource, error)
	}

	// Device compiles filter sources into programs.
	Device interface {
		Compile(FilterSource) (Program, error)
	}

	// Program renders a single pass. Render errors are treated as device
	// failures.
	Program interface {
		Render(*Pass) error
		Release()
	}

	// Texture is a buffer bound to a program with sampling mode. Nil buffer
	// must be sampled as black.
	Texture struct {
		Buffer *frame.Buffer
		Mode   SamplingMode
	}

	// Pass contains everything a program needs to render one stage.
	Pass struct {
		Stage      string
		Target     *frame.Buffer
		Precision  Precision
		Time       float64
		Beat       float64
		Frame      int64
		Resolution [2]int
		Pointer    [2]float64
		Focused    bool
		Textures   map[string]Texture
		Uniforms   map[string]uniform.Value
	}
)

// Uniform returns spec of the named uniform.
func (f FilterSource) Uniform(name string) (UniformSpec, bool) {
	for _, u := range f.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return UniformSpec{}, false
}

// defaultValue returns declared default or zero of the kind.
func (u UniformSpec) defaultValue() uniform.Value {
	if u.Default != nil {
		return u.Default
	}
	return uniform.Zero(u.Kind)
}

// SamplingMode is a texture fetch policy.
type SamplingMode int

// Sampling modes.
const (
	Linear SamplingMode = iota
	Nearest
	Mipmapped
)

func (m SamplingMode) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Mipmapped:
		return "mipmaps"
	}
	return "linear"
}

// ParseSamplingMode returns sampling mode by its name.
func ParseSamplingMode(s string) (SamplingMode, error) {
	switch strings.ToLower(s) {
	case "", "linear":
		return Linear, nil
	case "nearest":
		return Nearest, nil
	case "mipmaps", "mipmap", "mipmapped":
		return Mipmapped, nil
	}
	return 0, fmt.Errorf("unknown sampling mode %q", s)
}

// Precision is the storage format of stage output.
type Precision int

// Precisions.
const (
	U8 Precision = iota
	F16
	F32
)

func (p Precision) String() string {
	switch p {
	case F16:
		return "f16"
	case F32:
		return "f32"
	}
	return "u8"
}

// ParsePrecision returns precision by its name.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(s) {
	case "", "u8":
		return U8, nil
	case "f16":
		return F16, nil
	case "f32":
		return F32, nil
	}
	return 0, fmt.Errorf("unknown precision %q", s)
}
