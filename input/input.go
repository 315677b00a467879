// Package input provides named external signals sampled by render stages.
// Provider set is closed: video clips, still pictures, cameras and MIDI
// controllers. Decoding is done by drivers, providers only track playback
// state and publish the latest sample.
package input

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"pipelined.dev/wvr/frame"
	"pipelined.dev/wvr/log"
	"pipelined.dev/wvr/uniform"
)

var (
	// ErrUnknownInput is returned when input name is not registered.
	ErrUnknownInput = errors.New("unknown input")
	// ErrInputExists is returned when input name is already used.
	ErrInputExists = errors.New("input already exists")
	// ErrUnknownProperty is returned when provider has no such property.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrInvalidProperty is returned when property value has wrong type
	// or is out of range.
	ErrInvalidProperty = errors.New("invalid property value")
	// ErrNoDriver is returned when driver for input type is not provided.
	ErrNoDriver = errors.New("no driver")
	// ErrStopped is returned when stopped provider is sampled.
	ErrStopped = errors.New("input stopped")
)

// Provider is a named signal source. All methods are called from the
// render loop only. Sample must never block longer than a frame.
type Provider interface {
	Name() string
	Sample(time, beat float64) (uniform.Value, error)
	SetProperty(key string, value interface{}) error
	Rename(string)
	Play()
	Pause()
	Stop()
	SetLocked(bool)
}

type (
	// FrameSource is a decoded video clip.
	FrameSource interface {
		Len() int
		FPS() float64
		Frame(int) (*frame.Buffer, error)
		Close() error
	}

	// Capture is a live frame feed. Read blocks until the next frame is
	// available. Close must unblock pending Read.
	Capture interface {
		Read() (*frame.Buffer, error)
		Close() error
	}

	// Port is a MIDI input. Read blocks until the next raw message is
	// available. Close must unblock pending Read.
	Port interface {
		Read() ([]byte, error)
		Close() error
	}

	// Drivers open media resources. Nil drivers result in ErrNoDriver,
	// except video which reads numbered image sequences by default.
	Drivers struct {
		OpenVideo  func(path string, width, height int) (FrameSource, error)
		OpenCamera func(path string, width, height int) (Capture, error)
		OpenMidi   func(port string) (Port, error)
	}
)

// env carries everything needed to open a provider.
type env struct {
	drivers Drivers
	dir     string
	clock   func() time.Time
	log     log.Logger
}

// Config describes a provider to create.
type Config interface {
	open(name string, e env) (Provider, error)
	Type() string
}

type (
	// Speed of video playback. When Beats is positive, the whole clip
	// spans that many beats, otherwise it plays at FPS frames per second.
	// Zero speed uses the clip rate.
	Speed struct {
		FPS   float64
		Beats float64
	}

	// VideoConfig describes a video input.
	VideoConfig struct {
		Path   string
		Width  int
		Height int
		Speed  Speed
	}

	// PictureConfig describes a still picture input.
	PictureConfig struct {
		Path   string
		Width  int
		Height int
	}

	// CameraConfig describes a camera input.
	CameraConfig struct {
		Path   string
		Width  int
		Height int
	}

	// MidiConfig describes a MIDI controller input.
	MidiConfig struct {
		Port       string
		Controller int
		Default    float64
	}
)

// Type returns input type name.
func (VideoConfig) Type() string { return "video" }

// Type returns input type name.
func (PictureConfig) Type() string { return "picture" }

// Type returns input type name.
func (CameraConfig) Type() string { return "cam" }

// Type returns input type name.
func (MidiConfig) Type() string { return "midi" }

func (s Speed) String() string {
	if s.Beats > 0 {
		return fmt.Sprintf("%v beats", s.Beats)
	}
	return fmt.Sprintf("%v fps", s.FPS)
}

// ResolvePath returns resource path relative to the project directory.
// Absolute paths and URLs are returned unchanged.
func ResolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if u, err := url.Parse(path); err == nil && u.Scheme != "" && u.Host != "" {
		return path
	}
	return filepath.Join(dir, path)
}

// number converts property value to float.
func number(key string, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uniform.Float:
		return float64(v), nil
	case uniform.Int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: %v: %T", ErrInvalidProperty, key, value)
}
