// Package capture writes rendered frames asynchronously. Frames are pushed
// by the render loop into a bounded channel and written by a single worker
// goroutine. The render loop is never blocked: when the worker can't keep
// up, capture is disabled for the rest of the session.
package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"pipelined.dev/wvr/frame"
	"pipelined.dev/wvr/internal/pool"
	"pipelined.dev/wvr/log"
	"pipelined.dev/wvr/metric"
)

const (
	// DefaultCapacity is the default number of frames in flight.
	DefaultCapacity = 8
	lockName        = ".wvr.lock"
)

// ErrLocked is returned when output directory is used by another sink.
var ErrLocked = errors.New("output directory is locked")

type (
	// Frame is a tightly packed RGB frame with its presentation timestamp
	// in seconds.
	Frame struct {
		Index  int64
		PTS    float64
		Width  int
		Height int
		RGB    []uint8
	}

	// Writer persists frames. It's called from the worker goroutine only.
	Writer interface {
		Write(Frame) error
		Flush() error
	}
)

type pushed struct {
	buf   *frame.Buffer
	index int64
}

// Sink is the asynchronous frame writer.
type Sink struct {
	fps      float64
	capacity int
	writer   Writer
	frames   chan pushed

	stopped  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	err      error

	disabled atomic.Bool
	lock     *flock.Flock
	meter    *metric.Meter
	log      log.Logger
}

// Option provides a way to set functional parameters to sink.
type Option func(*Sink)

// WithCapacity sets number of frames in flight.
func WithCapacity(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithWriter replaces default BMP writer.
func WithWriter(w Writer) Option {
	return func(s *Sink) {
		s.writer = w
	}
}

// WithLogger sets logger to sink.
func WithLogger(l log.Logger) Option {
	return func(s *Sink) {
		s.log = l
	}
}

// Open creates output directory, locks it and starts the worker.
func Open(dir string, fps float64, options ...Option) (*Sink, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("capture rate must be positive: %v", fps)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output directory: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrLocked, dir)
	}
	s := &Sink{
		fps:      fps,
		capacity: DefaultCapacity,
		writer:   NewBMPWriter(dir),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		lock:     lock,
		log:      log.Silent(),
	}
	for _, option := range options {
		option(s)
	}
	s.frames = make(chan pushed, s.capacity)
	s.meter = metric.New(s)
	s.log = s.log.WithField("dir", dir)
	go s.run()
	return s, nil
}

// Push hands the buffer over to the worker. Caller must not use the buffer
// after successful push, it's recycled once written. It returns false if
// capture is disabled. Full channel or exited worker disable capture permanently.
func (s *Sink) Push(buf *frame.Buffer, index int64) bool {
	if s.disabled.Load() || s.stopped.Load() {
		return false
	}
	select {
	case <-s.done:
		s.disable("capture worker exited")
		return false
	default:
	}
	select {
	case s.frames <- pushed{buf: buf, index: index}:
		return true
	default:
		s.disable("capture channel is full")
		return false
	}
}

func (s *Sink) disable(reason string) {
	if s.disabled.Swap(true) {
		return
	}
	s.meter.Drop()
	s.log.Errorf("%v, capture disabled", reason)
}

// Enabled returns false once capture is disabled or stopped.
func (s *Sink) Enabled() bool {
	return !s.disabled.Load() && !s.stopped.Load()
}

// Stop signals the worker to write remaining frames and exit. It's safe
// to call multiple times.
func (s *Sink) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.stop)
	})
}

// Wait blocks until worker exits and returns its error.
func (s *Sink) Wait() error {
	<-s.done
	return s.err
}

// Close stops the sink and waits for the worker.
func (s *Sink) Close() error {
	s.Stop()
	return s.Wait()
}

func (s *Sink) run() {
	defer close(s.done)
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Warnf("unlock output directory: %v", err)
		}
	}()
	var rgb []uint8
	write := func(p pushed) error {
		start := time.Now()
		rgb = p.buf.RGB(rgb)
		err := s.writer.Write(Frame{
			Index:  p.index,
			PTS:    float64(p.index) / s.fps,
			Width:  p.buf.Width,
			Height: p.buf.Height,
			RGB:    rgb,
		})
		pool.Free(p.buf)
		if err != nil {
			return fmt.Errorf("write frame %d: %w", p.index, err)
		}
		s.meter.Frame(time.Since(start))
		return nil
	}
	for {
		select {
		case p := <-s.frames:
			if err := write(p); err != nil {
				s.fail(err)
				return
			}
		case <-s.stop:
			for {
				select {
				case p := <-s.frames:
					if err := write(p); err != nil {
						s.fail(err)
						return
					}
				default:
					if err := s.writer.Flush(); err != nil {
						s.fail(fmt.Errorf("flush: %w", err))
					}
					return
				}
			}
		}
	}
}

// fail records worker error and disables capture with a single log line.
func (s *Sink) fail(err error) {
	s.err = err
	if s.disabled.Swap(true) {
		return
	}
	s.log.Errorf("capture worker: %v, capture disabled", err)
}
