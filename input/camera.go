package input

import (
	"fmt"
	"sync"
	"sync/atomic"

	"pipelined.dev/wvr/frame"
	"pipelined.dev/wvr/log"
	"pipelined.dev/wvr/uniform"
)

// Camera publishes the latest captured frame. Capture is read in its own
// goroutine, so Sample never blocks. Paused camera keeps its last frame.
type Camera struct {
	name    atomic.Pointer[string]
	capture Capture
	latest  atomic.Pointer[frame.Buffer]
	paused  atomic.Bool
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
	log     log.Logger
}

func (c CameraConfig) open(name string, e env) (Provider, error) {
	if e.drivers.OpenCamera == nil {
		return nil, fmt.Errorf("open camera %v: %w", c.Path, ErrNoDriver)
	}
	capture, err := e.drivers.OpenCamera(c.Path, c.Width, c.Height)
	if err != nil {
		return nil, fmt.Errorf("open camera %v: %w", c.Path, err)
	}
	return NewCamera(name, capture, e.log), nil
}

// NewCamera starts reading the capture.
func NewCamera(name string, c Capture, l log.Logger) *Camera {
	if l == nil {
		l = log.Silent()
	}
	cam := &Camera{
		capture: c,
		done:    make(chan struct{}),
		log:     l,
	}
	cam.name.Store(&name)
	go cam.run()
	return cam
}

func (c *Camera) run() {
	defer close(c.done)
	for {
		buf, err := c.capture.Read()
		if err != nil {
			if !c.stopped.Load() {
				c.logger().Warnf("camera capture stopped: %v", err)
			}
			return
		}
		if !c.paused.Load() {
			c.latest.Store(buf)
		}
	}
}

// Name returns input name.
func (c *Camera) Name() string {
	return *c.name.Load()
}

// Rename changes input name.
func (c *Camera) Rename(name string) {
	c.name.Store(&name)
}

func (c *Camera) logger() log.Logger {
	return c.log.WithField("input", c.Name())
}

// Sample returns the latest frame. Nil buffer is returned until the first
// frame is captured.
func (c *Camera) Sample(_, _ float64) (uniform.Value, error) {
	if c.stopped.Load() {
		return nil, fmt.Errorf("camera %v: %w", c.Name(), ErrStopped)
	}
	return uniform.Texture{Buffer: c.latest.Load()}, nil
}

// SetProperty always fails, camera has no properties.
func (c *Camera) SetProperty(key string, _ interface{}) error {
	return fmt.Errorf("camera %v: %w: %v", c.Name(), ErrUnknownProperty, key)
}

// Play resumes publishing of captured frames.
func (c *Camera) Play() {
	c.paused.Store(false)
}

// Pause freezes the last frame.
func (c *Camera) Pause() {
	c.paused.Store(true)
}

// SetLocked does nothing, camera is always live.
func (c *Camera) SetLocked(bool) {}

// Stop closes the capture and waits for the reading goroutine.
func (c *Camera) Stop() {
	c.once.Do(func() {
		c.stopped.Store(true)
		if err := c.capture.Close(); err != nil {
			c.logger().Warnf("close camera: %v", err)
		}
		<-c.done
	})
}
