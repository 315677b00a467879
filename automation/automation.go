// Package automation evaluates keyframed curves that drive filter variables
// over elapsed time or beats. Curves are immutable: evaluation never changes
// their state, so a curve can be swapped atomically by replacing a pointer.
package automation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"pipelined.dev/wvr/uniform"
)

// Domain selects the clock a curve is evaluated against.
type Domain int

// Curve domains.
const (
	Time Domain = iota
	Beat
)

// Interpolation defines how values between keyframes are computed.
type Interpolation int

// Interpolation policies.
const (
	Linear Interpolation = iota
	Step
	Smooth
)

var (
	// ErrNoKeyframes is returned when curve is created without keyframes.
	ErrNoKeyframes = errors.New("curve has no keyframes")
	// ErrUnsorted is returned when keyframes are not ordered by position.
	ErrUnsorted = errors.New("keyframes are not sorted")
	// ErrMixedKinds is returned when keyframes have values of different kinds
	// or a keyframe has no value.
	ErrMixedKinds = errors.New("keyframes have different value kinds")
)

// Keyframe is a value pinned to a position in the curve domain.
type Keyframe struct {
	Position float64
	Value    uniform.Value
}

// Curve is an ordered sequence of keyframes.
type Curve struct {
	domain        Domain
	interpolation Interpolation
	keyframes     []Keyframe
}

// NewCurve validates keyframes and returns new curve. Keyframes must be
// sorted by position and have values of the same kind. Keyframes slice is
// copied.
func NewCurve(d Domain, i Interpolation, keyframes ...Keyframe) (*Curve, error) {
	if len(keyframes) == 0 {
		return nil, ErrNoKeyframes
	}
	if keyframes[0].Value == nil {
		return nil, fmt.Errorf("%w: keyframe 0", ErrMixedKinds)
	}
	kind := keyframes[0].Value.Kind()
	for j := range keyframes {
		if keyframes[j].Value == nil || keyframes[j].Value.Kind() != kind {
			return nil, fmt.Errorf("%w: keyframe %d", ErrMixedKinds, j)
		}
		if j > 0 && keyframes[j].Position < keyframes[j-1].Position {
			return nil, fmt.Errorf("%w: keyframe %d at %v", ErrUnsorted, j, keyframes[j].Position)
		}
	}
	kfs := make([]Keyframe, len(keyframes))
	copy(kfs, keyframes)
	return &Curve{
		domain:        d,
		interpolation: i,
		keyframes:     kfs,
	}, nil
}

// Domain of the curve.
func (c *Curve) Domain() Domain {
	return c.domain
}

// Interpolation policy of the curve.
func (c *Curve) Interpolation() Interpolation {
	return c.interpolation
}

// Kind returns kind of values produced by the curve.
func (c *Curve) Kind() uniform.Kind {
	return c.keyframes[0].Value.Kind()
}

// Keyframes returns a copy of curve keyframes.
func (c *Curve) Keyframes() []Keyframe {
	kfs := make([]Keyframe, len(c.keyframes))
	copy(kfs, c.keyframes)
	return kfs
}

// At evaluates the curve with the clock value of its domain.
func (c *Curve) At(time, beat float64) uniform.Value {
	if c.domain == Beat {
		return c.Evaluate(beat)
	}
	return c.Evaluate(time)
}

// Evaluate returns the value at position x. Positions before the first and
// after the last keyframe clamp to the edge values.
func (c *Curve) Evaluate(x float64) uniform.Value {
	first, last := c.keyframes[0], c.keyframes[len(c.keyframes)-1]
	if x <= first.Position {
		return first.Value
	}
	if x >= last.Position {
		return last.Value
	}
	// index of the first keyframe after x.
	next := sort.Search(len(c.keyframes), func(i int) bool {
		return c.keyframes[i].Position > x
	})
	a, b := c.keyframes[next-1], c.keyframes[next]
	if a.Position == x {
		return a.Value
	}
	t := (x - a.Position) / (b.Position - a.Position)
	switch c.interpolation {
	case Step:
		return a.Value
	case Smooth:
		t = t * t * (3 - 2*t)
	}
	return uniform.Lerp(a.Value, b.Value, t)
}

func (d Domain) String() string {
	if d == Beat {
		return "beat"
	}
	return "time"
}

// ParseDomain returns domain by its name.
func ParseDomain(s string) (Domain, error) {
	switch strings.ToLower(s) {
	case "", "time":
		return Time, nil
	case "beat", "beats":
		return Beat, nil
	}
	return 0, fmt.Errorf("unknown automation domain %q", s)
}

func (i Interpolation) String() string {
	switch i {
	case Step:
		return "step"
	case Smooth:
		return "smooth"
	}
	return "linear"
}

// ParseInterpolation returns interpolation by its name.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(s) {
	case "", "linear":
		return Linear, nil
	case "step":
		return Step, nil
	case "smooth":
		return Smooth, nil
	}
	return 0, fmt.Errorf("unknown interpolation %q", s)
}
