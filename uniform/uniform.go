// Package uniform defines values that are bound to filter programs:
// scalars, vectors and textures.
package uniform

import (
	"errors"
	"fmt"
	"strings"

	"pipelined.dev/wvr/frame"
)

// Kind identifies the type of uniform value.
type Kind int

// Supported kinds.
const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindVec2
	KindVec3
	KindVec4
	KindTexture
)

// ErrUnsupportedValue is returned when value can't be converted into uniform.
var ErrUnsupportedValue = errors.New("unsupported uniform value")

type (
	// Value is one of Float, Int, Bool, Vec2, Vec3, Vec4 or Texture.
	Value interface {
		Kind() Kind
		isValue()
	}

	// Float is a scalar value.
	Float float64
	// Int is an integer value.
	Int int64
	// Bool is a boolean value.
	Bool bool
	// Vec2 is a two-component vector.
	Vec2 [2]float64
	// Vec3 is a three-component vector.
	Vec3 [3]float64
	// Vec4 is a four-component vector.
	Vec4 [4]float64
	// Texture is an image sampled by the program. Nil buffer is black.
	Texture struct {
		*frame.Buffer
	}
)

// Kind implements Value.
func (Float) Kind() Kind { return KindFloat }

// Kind implements Value.
func (Int) Kind() Kind { return KindInt }

// Kind implements Value.
func (Bool) Kind() Kind { return KindBool }

// Kind implements Value.
func (Vec2) Kind() Kind { return KindVec2 }

// Kind implements Value.
func (Vec3) Kind() Kind { return KindVec3 }

// Kind implements Value.
func (Vec4) Kind() Kind { return KindVec4 }

// Kind implements Value.
func (Texture) Kind() Kind { return KindTexture }

func (Float) isValue()   {}
func (Int) isValue()     {}
func (Bool) isValue()    {}
func (Vec2) isValue()    {}
func (Vec3) isValue()    {}
func (Vec4) isValue()    {}
func (Texture) isValue() {}

var kindNames = map[Kind]string{
	KindFloat:   "float",
	KindInt:     "int",
	KindBool:    "bool",
	KindVec2:    "vec2",
	KindVec3:    "vec3",
	KindVec4:    "vec4",
	KindTexture: "texture",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind returns kind by its name.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: kind %q", ErrUnsupportedValue, s)
}

// Numeric returns true if values of the kind can be interpolated.
func (k Kind) Numeric() bool {
	switch k {
	case KindFloat, KindVec2, KindVec3, KindVec4:
		return true
	}
	return false
}

// Zero returns neutral value of provided kind.
func Zero(k Kind) Value {
	switch k {
	case KindInt:
		return Int(0)
	case KindBool:
		return Bool(false)
	case KindVec2:
		return Vec2{}
	case KindVec3:
		return Vec3{}
	case KindVec4:
		return Vec4{}
	case KindTexture:
		return Texture{}
	}
	return Float(0)
}

// components returns vector components of numeric value.
func components(v Value) []float64 {
	switch val := v.(type) {
	case Float:
		return []float64{float64(val)}
	case Vec2:
		return val[:]
	case Vec3:
		return val[:]
	case Vec4:
		return val[:]
	}
	return nil
}

// Lerp interpolates between a and b with factor t in [0, 1]. Values of
// different or non-numeric kinds switch from a to b when t reaches 1.
func Lerp(a, b Value, t float64) Value {
	if a == nil || b == nil || a.Kind() != b.Kind() || !a.Kind().Numeric() {
		if t >= 1 {
			return b
		}
		return a
	}
	ca, cb := components(a), components(b)
	mix := func(i int) float64 {
		return ca[i] + (cb[i]-ca[i])*t
	}
	switch a.(type) {
	case Float:
		return Float(mix(0))
	case Vec2:
		return Vec2{mix(0), mix(1)}
	case Vec3:
		return Vec3{mix(0), mix(1), mix(2)}
	default:
		return Vec4{mix(0), mix(1), mix(2), mix(3)}
	}
}

// Parse converts decoded configuration value into uniform. Supported
// inputs are numbers, booleans and lists of 2 to 4 numbers.
func Parse(v interface{}) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case []float64:
		return vector(val)
	case []interface{}:
		floats := make([]float64, 0, len(val))
		for i := range val {
			f, ok := number(val[i])
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", ErrUnsupportedValue, i, val[i])
			}
			floats = append(floats, f)
		}
		return vector(floats)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// Convert returns v as value of kind k. Numbers are converted between
// float and int, everything else must match exactly.
func Convert(v Value, k Kind) (Value, error) {
	if v.Kind() == k {
		return v, nil
	}
	switch val := v.(type) {
	case Int:
		if k == KindFloat {
			return Float(val), nil
		}
	case Float:
		if k == KindInt {
			return Int(val), nil
		}
	}
	return nil, fmt.Errorf("%w: %v is not %v", ErrUnsupportedValue, v.Kind(), k)
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func vector(f []float64) (Value, error) {
	switch len(f) {
	case 1:
		return Float(f[0]), nil
	case 2:
		return Vec2{f[0], f[1]}, nil
	case 3:
		return Vec3{f[0], f[1], f[2]}, nil
	case 4:
		return Vec4{f[0], f[1], f[2], f[3]}, nil
	}
	return nil, fmt.Errorf("%w: vector of %d elements", ErrUnsupportedValue, len(f))
}
