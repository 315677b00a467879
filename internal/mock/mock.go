// Package mock provides mocks for media drivers, presentation surfaces and
// capture writers, and allows to execute integration tests.
package mock

import (
	"errors"
	"image/color"
	"sync"

	"pipelined.dev/wvr/capture"
	"pipelined.dev/wvr/frame"
)

// ErrClosed is returned by Read of closed live sources.
var ErrClosed = errors.New("mock closed")

// Clip mocks a decoded video clip.
type Clip struct {
	Frames      []*frame.Buffer
	Rate        float64
	ErrorOnCall error
	Closed      bool
	counter
}

// NewClip returns clip of n frames. Each frame is filled with its index in
// the red channel.
func NewClip(n int, rate float64) *Clip {
	frames := make([]*frame.Buffer, n)
	for i := range frames {
		frames[i] = frame.New(1, 1)
		frames[i].Fill(color.RGBA{R: uint8(i), A: 255})
	}
	return &Clip{
		Frames: frames,
		Rate:   rate,
	}
}

// Len returns number of frames.
func (m *Clip) Len() int {
	return len(m.Frames)
}

// FPS returns clip rate.
func (m *Clip) FPS() float64 {
	return m.Rate
}

// Frame returns frame at index or ErrorOnCall.
func (m *Clip) Frame(i int) (*frame.Buffer, error) {
	m.advance()
	if m.ErrorOnCall != nil {
		return nil, m.ErrorOnCall
	}
	return m.Frames[i], nil
}

// Close marks clip closed.
func (m *Clip) Close() error {
	m.Closed = true
	return nil
}

// Feed mocks live sources: camera captures and MIDI ports. Values sent
// with Send are returned by Read in order. Read blocks until value is sent
// or feed is closed.
type Feed[T any] struct {
	values chan T
	closed chan struct{}
	once   sync.Once
}

// NewFeed returns open feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{
		values: make(chan T),
		closed: make(chan struct{}),
	}
}

// Send blocks until the value is read. It returns false if feed is closed.
func (m *Feed[T]) Send(v T) bool {
	select {
	case m.values <- v:
		return true
	case <-m.closed:
		return false
	}
}

// Read returns the next value.
func (m *Feed[T]) Read() (T, error) {
	select {
	case v := <-m.values:
		return v, nil
	case <-m.closed:
		var zero T
		return zero, ErrClosed
	}
}

// Close unblocks pending calls.
func (m *Feed[T]) Close() error {
	m.once.Do(func() {
		close(m.closed)
	})
	return nil
}

// Capture mocks a camera capture.
type Capture = Feed[*frame.Buffer]

// Port mocks a MIDI port.
type Port = Feed[[]byte]

// ControlChange returns raw MIDI control change message.
func ControlChange(channel, controller, value uint8) []byte {
	return []byte{0xB0 | channel&0x0F, controller, value}
}

// Surface mocks a presentation surface.
type Surface struct {
	m           sync.Mutex
	Last        *frame.Buffer
	VSync       bool
	Fullscreen  bool
	ErrorOnCall error
	counter
}

// Present stores copy of the frame.
func (m *Surface) Present(b *frame.Buffer) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.advance()
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	m.Last = b.Clone()
	return nil
}

// SetVSync stores the value.
func (m *Surface) SetVSync(v bool) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.VSync = v
	return nil
}

// SetFullscreen stores the value.
func (m *Surface) SetFullscreen(v bool) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.Fullscreen = v
	return nil
}

// Writer mocks a capture writer. When Stall is not nil, Write blocks until
// it's closed.
type Writer struct {
	m           sync.Mutex
	Indices     []int64
	PTS         []float64
	Flushed     bool
	Stall       chan struct{}
	ErrorOnCall error
}

// Write records frame index.
func (m *Writer) Write(f capture.Frame) error {
	if m.Stall != nil {
		<-m.Stall
	}
	m.m.Lock()
	defer m.m.Unlock()
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	m.Indices = append(m.Indices, f.Index)
	m.PTS = append(m.PTS, f.PTS)
	return nil
}

// Flush marks writer flushed.
func (m *Writer) Flush() error {
	m.m.Lock()
	defer m.m.Unlock()
	m.Flushed = true
	return nil
}

// Written returns recorded indices.
func (m *Writer) Written() []int64 {
	m.m.Lock()
	defer m.m.Unlock()
	result := make([]int64, len(m.Indices))
	copy(result, m.Indices)
	return result
}

// counter counts calls.
type counter struct {
	m     sync.Mutex
	calls int
}

func (c *counter) advance() {
	c.m.Lock()
	defer c.m.Unlock()
	c.calls++
}

// Calls returns number of calls.
func (c *counter) Calls() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.calls
}
