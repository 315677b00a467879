package input

import (
	"fmt"
	"math"
	"time"

	"pipelined.dev/wvr/frame"
	"pipelined.dev/wvr/log"
	"pipelined.dev/wvr/uniform"
)

// Video is a looped clip. Playhead advances with wall clock, or with the
// transport time when locked. Clips with beat speed always follow the
// transport beat.
type Video struct {
	name    string
	src     FrameSource
	speed   Speed
	playing bool
	locked  bool
	stopped bool

	// playhead position in frames at origin point.
	offset     float64
	originTime float64
	originBeat float64
	originWall time.Time
	// resync moves origin to the next sampled clock values.
	resync bool

	lastTime float64
	lastBeat float64

	current *frame.Buffer
	// failed is the index of the last frame failed to decode.
	failed int

	clock func() time.Time
	log   log.Logger
}

func (c VideoConfig) open(name string, e env) (Provider, error) {
	open := e.drivers.OpenVideo
	if open == nil {
		open = OpenSequence
	}
	src, err := open(ResolvePath(e.dir, c.Path), c.Width, c.Height)
	if err != nil {
		return nil, fmt.Errorf("open video %v: %w", c.Path, err)
	}
	return NewVideo(name, src, c.Speed, e.clock, e.log), nil
}

// NewVideo returns paused video provider.
func NewVideo(name string, src FrameSource, speed Speed, clock func() time.Time, l log.Logger) *Video {
	if clock == nil {
		clock = time.Now
	}
	if l == nil {
		l = log.Silent()
	}
	return &Video{
		name:   name,
		src:    src,
		speed:  speed,
		failed: -1,
		clock:  clock,
		log:    l,
	}
}

// Name returns input name.
func (v *Video) Name() string {
	return v.name
}

// Rename changes input name.
func (v *Video) Rename(name string) {
	v.name = name
}

// Position returns normalized playhead position at last sampled clock.
func (v *Video) Position() float64 {
	n := v.src.Len()
	if n == 0 {
		return 0
	}
	return float64(v.wrap(v.position(v.lastTime, v.lastBeat))) / float64(n)
}

// Sample returns the clip frame at current playhead.
func (v *Video) Sample(time, beat float64) (uniform.Value, error) {
	if v.stopped {
		return nil, fmt.Errorf("video %v: %w", v.name, ErrStopped)
	}
	v.lastTime, v.lastBeat = time, beat
	if v.resync {
		v.originTime, v.originBeat, v.originWall = time, beat, v.clock()
		v.resync = false
	}
	if v.src.Len() == 0 {
		return uniform.Texture{}, nil
	}
	// sources may return a previous frame until the requested one is
	// decoded, so frame is fetched on every sample.
	index := v.wrap(v.position(time, beat))
	buf, err := v.src.Frame(index)
	if err != nil {
		if index != v.failed {
			v.log.WithField("input", v.name).Warnf("decode frame %d: %v", index, err)
			v.failed = index
		}
		return uniform.Texture{Buffer: v.current}, nil
	}
	v.failed = -1
	v.current = buf
	return uniform.Texture{Buffer: buf}, nil
}

// position returns playhead in frames, not wrapped.
func (v *Video) position(time, beat float64) float64 {
	if !v.playing || v.resync {
		return v.offset
	}
	if v.speed.Beats > 0 {
		return v.offset + (beat-v.originBeat)/v.speed.Beats*float64(v.src.Len())
	}
	rate := v.speed.FPS
	if rate <= 0 {
		rate = v.src.FPS()
	}
	if v.locked {
		return v.offset + (time-v.originTime)*rate
	}
	return v.offset + v.clock().Sub(v.originWall).Seconds()*rate
}

func (v *Video) wrap(position float64) int {
	n := v.src.Len()
	i := int(math.Floor(position)) % n
	if i < 0 {
		i += n
	}
	return i
}

// rebase fixes current playhead as offset.
func (v *Video) rebase() {
	v.offset = v.position(v.lastTime, v.lastBeat)
	v.resync = v.playing
}

// SetProperty supports "position" (normalized seek) and "speed" (Speed
// or a number of frames per second).
func (v *Video) SetProperty(key string, value interface{}) error {
	switch key {
	case "position":
		p, err := number(key, value)
		if err != nil {
			return err
		}
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: position %v", ErrInvalidProperty, p)
		}
		v.offset = p * float64(v.src.Len())
		v.resync = v.playing
		return nil
	case "speed":
		var s Speed
		if speed, ok := value.(Speed); ok {
			s = speed
		} else {
			fps, err := number(key, value)
			if err != nil {
				return err
			}
			s = Speed{FPS: fps}
		}
		if s.FPS < 0 || s.Beats < 0 {
			return fmt.Errorf("%w: speed %v", ErrInvalidProperty, s)
		}
		v.rebase()
		v.speed = s
		return nil
	}
	return fmt.Errorf("video %v: %w: %v", v.name, ErrUnknownProperty, key)
}

// Play resumes playback from the paused position.
func (v *Video) Play() {
	if v.playing {
		return
	}
	v.playing = true
	v.resync = true
}

// Pause freezes the playhead.
func (v *Video) Pause() {
	if !v.playing {
		return
	}
	v.rebase()
	v.playing = false
	v.resync = false
}

// SetLocked switches between wall clock and transport time.
func (v *Video) SetLocked(locked bool) {
	if v.locked == locked {
		return
	}
	v.rebase()
	v.locked = locked
}

// Stop closes the clip.
func (v *Video) Stop() {
	if v.stopped {
		return
	}
	v.stopped = true
	v.playing = false
	if err := v.src.Close(); err != nil {
		v.log.WithField("input", v.name).Warnf("close video: %v", err)
	}
}
