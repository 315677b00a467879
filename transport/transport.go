// Package transport implements the session clock. Transport advances time
// and beat once per rendered frame while playing, either from wall clock or
// in fixed per-frame steps when speed is locked.
package transport

import (
	"errors"
	"fmt"
	"time"

	"pipelined.dev/wvr/log"
)

var (
	// ErrInvalidState is returned if transport method cannot be executed
	// at this moment. The transport state is left unchanged.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidRate is returned when bpm or target fps is not positive.
	ErrInvalidRate = errors.New("rate must be positive")
)

// Transport is the session clock. It's not safe for concurrent use: only
// the render loop owns it.
type Transport struct {
	state     State
	bpm       float64
	targetFPS float64
	locked    bool

	time       float64
	beat       float64
	frameCount int64

	// locked speed is computed from the last rebase point to avoid
	// accumulating rounding errors.
	baseTime     float64
	baseBeat     float64
	lockedFrames int64

	clock func() time.Time
	last  time.Time

	onStop []func()
	log    log.Logger
}

// Option provides a way to set functional parameters to transport.
type Option func(*Transport)

// WithClock sets the wall clock source. time.Now is used by default.
func WithClock(clock func() time.Time) Option {
	return func(t *Transport) {
		t.clock = clock
	}
}

// WithLogger sets logger to transport.
func WithLogger(l log.Logger) Option {
	return func(t *Transport) {
		t.log = l
	}
}

// WithLockedSpeed enables fixed per-frame advancement.
func WithLockedSpeed(locked bool) Option {
	return func(t *Transport) {
		t.locked = locked
	}
}

// New creates a transport in Ready state.
func New(bpm, targetFPS float64, options ...Option) (*Transport, error) {
	if bpm <= 0 || targetFPS <= 0 {
		return nil, fmt.Errorf("%w: bpm %v fps %v", ErrInvalidRate, bpm, targetFPS)
	}
	t := &Transport{
		state:     Ready,
		bpm:       bpm,
		targetFPS: targetFPS,
		clock:     time.Now,
		log:       log.Silent(),
	}
	for _, option := range options {
		option(t)
	}
	t.rebase()
	return t, nil
}

// OnStop registers a hook called once when transport is stopped.
func (t *Transport) OnStop(fn func()) {
	t.onStop = append(t.onStop, fn)
}

// Play starts or resumes the clock. Wall-clock reference is reset, so the
// time spent paused is not accounted.
func (t *Transport) Play() error {
	return t.send(play)
}

// Pause freezes the clock.
func (t *Transport) Pause() error {
	return t.send(pause)
}

// Stop moves transport to terminal state and triggers stop hooks. Calling
// it again has no effect.
func (t *Transport) Stop() error {
	return t.send(stop)
}

func (t *Transport) send(e event) error {
	s, err := t.state.transition(t, e)
	if err != nil {
		t.log.Debugf("transport %v ignored in %v state", e, t.state)
		return fmt.Errorf("%v in %v: %w", e, t.state, err)
	}
	if s != t.state {
		t.log.Debugf("transport %v -> %v", t.state, s)
		t.state = s
	}
	return nil
}

// Advance moves the clock forward by one frame. It does nothing unless
// transport is playing. Returns true if clock was advanced.
func (t *Transport) Advance() bool {
	if t.state != Playing {
		return false
	}
	t.frameCount++
	if t.locked {
		t.lockedFrames++
		n := float64(t.lockedFrames)
		t.time = t.baseTime + n/t.targetFPS
		t.beat = t.baseBeat + n*t.bpm/(60*t.targetFPS)
		return true
	}
	now := t.clock()
	elapsed := now.Sub(t.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	t.last = now
	t.time += elapsed
	t.beat += elapsed * t.bpm / 60
	return true
}

// SetBPM changes tempo. Beats accumulated so far are kept.
func (t *Transport) SetBPM(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("%w: bpm %v", ErrInvalidRate, bpm)
	}
	t.bpm = bpm
	t.rebase()
	return nil
}

// SetTargetFPS changes the frame rate used in locked mode.
func (t *Transport) SetTargetFPS(fps float64) error {
	if fps <= 0 {
		return fmt.Errorf("%w: fps %v", ErrInvalidRate, fps)
	}
	t.targetFPS = fps
	t.rebase()
	return nil
}

// SetLockedSpeed switches between wall-clock and fixed-step advancement.
func (t *Transport) SetLockedSpeed(locked bool) {
	t.locked = locked
	t.rebase()
}

// rebase pins current position as a new reference for both modes.
func (t *Transport) rebase() {
	t.baseTime = t.time
	t.baseBeat = t.beat
	t.lockedFrames = 0
	t.last = t.clock()
}

// State returns current transport state.
func (t *Transport) State() State {
	return t.state
}

// Time returns elapsed seconds.
func (t *Transport) Time() float64 {
	return t.time
}

// Beat returns elapsed beats.
func (t *Transport) Beat() float64 {
	return t.beat
}

// FrameCount returns number of advanced frames.
func (t *Transport) FrameCount() int64 {
	return t.frameCount
}

// BPM returns current tempo.
func (t *Transport) BPM() float64 {
	return t.bpm
}

// TargetFPS returns current target frame rate.
func (t *Transport) TargetFPS() float64 {
	return t.targetFPS
}

// LockedSpeed returns true if transport advances in fixed steps.
func (t *Transport) LockedSpeed() bool {
	return t.locked
}
