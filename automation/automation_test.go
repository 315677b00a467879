package automation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/wvr/automation"
	"pipelined.dev/wvr/uniform"
)

func keyframes(pairs ...float64) []automation.Keyframe {
	kfs := make([]automation.Keyframe, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		kfs = append(kfs, automation.Keyframe{Position: pairs[i], Value: uniform.Float(pairs[i+1])})
	}
	return kfs
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		description   string
		interpolation automation.Interpolation
		keyframes     []automation.Keyframe
		x             float64
		expected      uniform.Value
	}{
		{
			description: "exact first keyframe",
			keyframes:   keyframes(0, 1, 2, 3, 4, 7),
			x:           0,
			expected:    uniform.Float(1),
		},
		{
			description: "exact middle keyframe",
			keyframes:   keyframes(0, 1, 2, 3, 4, 7),
			x:           2,
			expected:    uniform.Float(3),
		},
		{
			description: "exact last keyframe",
			keyframes:   keyframes(0, 1, 2, 3, 4, 7),
			x:           4,
			expected:    uniform.Float(7),
		},
		{
			description: "clamp before first",
			keyframes:   keyframes(1, 5, 2, 6),
			x:           -100,
			expected:    uniform.Float(5),
		},
		{
			description: "clamp after last",
			keyframes:   keyframes(1, 5, 2, 6),
			x:           100,
			expected:    uniform.Float(6),
		},
		{
			description: "linear",
			keyframes:   keyframes(0, 0, 4, 1),
			x:           1,
			expected:    uniform.Float(0.25),
		},
		{
			description:   "step",
			interpolation: automation.Step,
			keyframes:     keyframes(0, 0, 4, 1),
			x:             3.99,
			expected:      uniform.Float(0),
		},
		{
			description:   "smooth midpoint",
			interpolation: automation.Smooth,
			keyframes:     keyframes(0, 0, 2, 1),
			x:             1,
			expected:      uniform.Float(0.5),
		},
		{
			description: "single keyframe",
			keyframes:   keyframes(3, 9),
			x:           1,
			expected:    uniform.Float(9),
		},
		{
			description: "duplicate positions jump",
			keyframes:   keyframes(0, 0, 1, 1, 1, 5, 2, 5),
			x:           1.5,
			expected:    uniform.Float(5),
		},
	}
	for _, test := range tests {
		c, err := automation.NewCurve(automation.Time, test.interpolation, test.keyframes...)
		require.NoError(t, err, test.description)
		assert.Equal(t, test.expected, c.Evaluate(test.x), test.description)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	c, err := automation.NewCurve(automation.Beat, automation.Linear, keyframes(0, 0, 1, 10)...)
	require.NoError(t, err)
	before := c.Keyframes()
	for i := 0; i < 10; i++ {
		assert.Equal(t, uniform.Float(5), c.Evaluate(0.5))
	}
	assert.Equal(t, before, c.Keyframes())
}

func TestAt(t *testing.T) {
	byBeat, err := automation.NewCurve(automation.Beat, automation.Linear, keyframes(0, 0, 4, 4)...)
	require.NoError(t, err)
	byTime, err := automation.NewCurve(automation.Time, automation.Linear, keyframes(0, 0, 4, 4)...)
	require.NoError(t, err)

	assert.Equal(t, uniform.Float(3), byBeat.At(1, 3))
	assert.Equal(t, uniform.Float(1), byTime.At(1, 3))
}

func TestVectorCurve(t *testing.T) {
	c, err := automation.NewCurve(automation.Time, automation.Linear,
		automation.Keyframe{Position: 0, Value: uniform.Vec4{0, 0, 0, 1}},
		automation.Keyframe{Position: 1, Value: uniform.Vec4{1, 0.5, 0, 1}},
	)
	require.NoError(t, err)
	assert.Equal(t, uniform.KindVec4, c.Kind())
	assert.Equal(t, uniform.Vec4{0.5, 0.25, 0, 1}, c.Evaluate(0.5))
}

func TestNewCurveErrors(t *testing.T) {
	_, err := automation.NewCurve(automation.Time, automation.Linear)
	assert.ErrorIs(t, err, automation.ErrNoKeyframes)

	_, err = automation.NewCurve(automation.Time, automation.Linear, keyframes(2, 0, 1, 1)...)
	assert.ErrorIs(t, err, automation.ErrUnsorted)

	_, err = automation.NewCurve(automation.Time, automation.Linear,
		automation.Keyframe{Position: 0, Value: uniform.Float(0)},
		automation.Keyframe{Position: 1, Value: uniform.Bool(true)},
	)
	assert.ErrorIs(t, err, automation.ErrMixedKinds)

	_, err = automation.NewCurve(automation.Time, automation.Linear,
		automation.Keyframe{Position: 0},
		automation.Keyframe{Position: 1, Value: uniform.Float(1)},
	)
	assert.ErrorIs(t, err, automation.ErrMixedKinds)
}

func TestParse(t *testing.T) {
	d, err := automation.ParseDomain("Beats")
	assert.NoError(t, err)
	assert.Equal(t, automation.Beat, d)
	_, err = automation.ParseDomain("frames")
	assert.Error(t, err)

	i, err := automation.ParseInterpolation("step")
	assert.NoError(t, err)
	assert.Equal(t, automation.Step, i)
	assert.Equal(t, "smooth", automation.Smooth.String())
}
