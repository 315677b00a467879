package uniform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/wvr/uniform"
)

func TestLerp(t *testing.T) {
	tests := []struct {
		description string
		a, b        uniform.Value
		t           float64
		expected    uniform.Value
	}{
		{
			description: "float",
			a:           uniform.Float(0),
			b:           uniform.Float(10),
			t:           0.25,
			expected:    uniform.Float(2.5),
		},
		{
			description: "vec3",
			a:           uniform.Vec3{0, 1, 2},
			b:           uniform.Vec3{2, 1, 0},
			t:           0.5,
			expected:    uniform.Vec3{1, 1, 1},
		},
		{
			description: "bool before end",
			a:           uniform.Bool(false),
			b:           uniform.Bool(true),
			t:           0.9,
			expected:    uniform.Bool(false),
		},
		{
			description: "int at end",
			a:           uniform.Int(1),
			b:           uniform.Int(5),
			t:           1,
			expected:    uniform.Int(5),
		},
		{
			description: "mismatched kinds",
			a:           uniform.Float(1),
			b:           uniform.Vec2{1, 1},
			t:           0.5,
			expected:    uniform.Float(1),
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, uniform.Lerp(test.a, test.b, test.t), test.description)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in       interface{}
		expected uniform.Value
		err      bool
	}{
		{in: 0.5, expected: uniform.Float(0.5)},
		{in: int64(3), expected: uniform.Int(3)},
		{in: true, expected: uniform.Bool(true)},
		{in: []interface{}{1.0, int64(2)}, expected: uniform.Vec2{1, 2}},
		{in: []interface{}{1.0, 2.0, 3.0, 4.0}, expected: uniform.Vec4{1, 2, 3, 4}},
		{in: []interface{}{1.0, "a"}, err: true},
		{in: []float64{1, 2, 3, 4, 5}, err: true},
		{in: "text", err: true},
	}
	for _, test := range tests {
		v, err := uniform.Parse(test.in)
		if test.err {
			assert.ErrorIs(t, err, uniform.ErrUnsupportedValue)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, test.expected, v)
	}
}

func TestKinds(t *testing.T) {
	k, err := uniform.ParseKind("VEC3")
	assert.NoError(t, err)
	assert.Equal(t, uniform.KindVec3, k)
	assert.Equal(t, "vec3", k.String())
	_, err = uniform.ParseKind("mat4")
	assert.Error(t, err)

	assert.Equal(t, uniform.Vec2{}, uniform.Zero(uniform.KindVec2))
	assert.True(t, uniform.KindFloat.Numeric())
	assert.False(t, uniform.KindTexture.Numeric())

	v, err := uniform.Convert(uniform.Int(2), uniform.KindFloat)
	assert.NoError(t, err)
	assert.Equal(t, uniform.Float(2), v)
	_, err = uniform.Convert(uniform.Bool(true), uniform.KindFloat)
	assert.Error(t, err)
}
