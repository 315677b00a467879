package wvr

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"pipelined.dev/wvr/capture"
	"pipelined.dev/wvr/config"
	"pipelined.dev/wvr/control"
	"pipelined.dev/wvr/frame"
	"pipelined.dev/wvr/graph"
	"pipelined.dev/wvr/input"
	"pipelined.dev/wvr/internal/pool"
	"pipelined.dev/wvr/log"
	"pipelined.dev/wvr/metric"
	"pipelined.dev/wvr/transport"
)

// ErrStopped is returned when stopped session is used.
var ErrStopped = errors.New("session stopped")

// Surface presents rendered frames.
type Surface interface {
	Present(*frame.Buffer) error
	SetVSync(bool) error
	SetFullscreen(bool) error
}

// Session owns transport, inputs and the render graph. All of them are
// mutated only by Frame, so Frame must be called from a single goroutine.
// Control messages can be sent from any goroutine.
type Session struct {
	id   string
	view config.View
	dir  string

	transport *transport.Transport
	graph     *graph.Graph
	inputs    *input.Registry
	inbox     *control.Inbox
	surface   Surface

	sink           *capture.Sink
	captureOptions []capture.Option
	// captureFailed is set when sink disabled itself.
	captureFailed bool

	pointer [2]float64
	focused bool

	drivers       input.Drivers
	clock         func() time.Time
	inboxCapacity int
	meter         *metric.Meter
	log           log.Logger
}

// Option provides a way to set functional parameters to session.
type Option func(*Session)

// WithLogger sets logger to session and all its components.
func WithLogger(l log.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithSurface sets presentation surface. Session without surface renders
// headless.
func WithSurface(surface Surface) Option {
	return func(s *Session) {
		s.surface = surface
	}
}

// WithDrivers sets media drivers for inputs.
func WithDrivers(d input.Drivers) Option {
	return func(s *Session) {
		s.drivers = d
	}
}

// WithClock sets wall clock source.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// WithInboxCapacity sets number of pending control messages.
func WithInboxCapacity(n int) Option {
	return func(s *Session) {
		s.inboxCapacity = n
	}
}

// WithCaptureOptions sets options of frame capture sink.
func WithCaptureOptions(options ...capture.Option) Option {
	return func(s *Session) {
		s.captureOptions = options
	}
}

// New builds the session from configuration. Any failure is fatal: all
// resources acquired so far are released.
func New(cfg *config.Session, device graph.Device, catalog graph.Catalog, options ...Option) (*Session, error) {
	s := &Session{
		id:    uuid.New().String(),
		view:  cfg.View,
		dir:   cfg.OutputDir(),
		clock: time.Now,
		log:   log.GetLogger(),
	}
	for _, option := range options {
		option(s)
	}
	s.log = s.log.WithField("session", s.id)
	s.meter = metric.New(s)
	s.inbox = control.NewInbox(s.inboxCapacity)

	var err error
	if s.transport, err = transport.New(cfg.BPM, cfg.View.TargetFPS,
		transport.WithClock(s.clock),
		transport.WithLockedSpeed(cfg.View.LockedSpeed),
		transport.WithLogger(s.log),
	); err != nil {
		return nil, err
	}

	s.inputs = input.NewRegistry(s.drivers,
		input.WithDir(cfg.Path),
		input.WithClock(s.clock),
		input.WithLogger(s.log),
	)
	s.inputs.SetLocked(cfg.View.LockedSpeed)
	configs, err := cfg.InputConfigs()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.inputs.Add(name, configs[name]); err != nil {
			s.inputs.StopAll()
			return nil, fmt.Errorf("input %v: %w", name, err)
		}
	}

	chain, final, err := cfg.Stages()
	if err != nil {
		s.inputs.StopAll()
		return nil, err
	}
	if s.graph, err = graph.New(device, catalog, cfg.View.Width, cfg.View.Height, chain, final, graph.WithLogger(s.log)); err != nil {
		s.inputs.StopAll()
		return nil, err
	}

	if err := s.setupSurface(); err != nil {
		s.release()
		return nil, err
	}
	if cfg.View.Screenshot {
		if err := s.openSink(); err != nil {
			s.release()
			return nil, err
		}
	}
	s.transport.OnStop(s.onStop)
	s.log.WithField("stages", s.graph.Len()).WithField("inputs", len(names)).Info("session created")
	return s, nil
}

func (s *Session) setupSurface() error {
	if s.surface == nil {
		return nil
	}
	if err := s.surface.SetVSync(s.view.VSync); err != nil {
		return fmt.Errorf("set vsync: %w", err)
	}
	if err := s.surface.SetFullscreen(s.view.Fullscreen); err != nil {
		return fmt.Errorf("set fullscreen: %w", err)
	}
	return nil
}

func (s *Session) openSink() error {
	options := append([]capture.Option{capture.WithLogger(s.log)}, s.captureOptions...)
	sink, err := capture.Open(s.dir, s.transport.TargetFPS(), options...)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	s.sink = sink
	return nil
}

// onStop releases inputs and signals capture worker.
func (s *Session) onStop() {
	s.inputs.StopAll()
	if s.sink != nil {
		s.sink.Stop()
	}
	s.log.Info("session stopped")
}

func (s *Session) release() {
	s.inputs.StopAll()
	s.graph.Release()
}

// ID returns unique session identity.
func (s *Session) ID() string {
	return s.id
}

// Send queues control message. It's safe for concurrent use.
func (s *Session) Send(m control.Message) error {
	return s.inbox.Send(m)
}

// Inbox returns control inbox of the session.
func (s *Session) Inbox() *control.Inbox {
	return s.inbox
}

// Transport returns session clock. It must be used from the render
// goroutine only.
func (s *Session) Transport() *transport.Transport {
	return s.transport
}

// Graph returns render graph. It must be used from the render goroutine
// only.
func (s *Session) Graph() *graph.Graph {
	return s.graph
}

// Inputs returns input registry. It must be used from the render goroutine
// only.
func (s *Session) Inputs() *input.Registry {
	return s.inputs
}

// View returns current view settings.
func (s *Session) View() config.View {
	return s.view
}

// Capturing returns true if frames are captured.
func (s *Session) Capturing() bool {
	return s.view.Screenshot && s.sink != nil && s.sink.Enabled()
}

// Resize handles surface size change. Internal resolution follows the
// surface only when view is dynamic.
func (s *Session) Resize(width, height int) error {
	if !s.view.Dynamic {
		return nil
	}
	if err := s.graph.Resize(width, height); err != nil {
		return err
	}
	s.view.Width, s.view.Height = width, height
	return nil
}

// SetPointer sets pointer position in surface pixels passed to every
// stage. It must be called from the render goroutine only.
func (s *Session) SetPointer(x, y float64) {
	s.pointer = [2]float64{x, y}
}

// SetFocused sets surface focus state passed to every stage. Surface is
// not focused until told otherwise. It must be called from the render
// goroutine only.
func (s *Session) SetFocused(focused bool) {
	s.focused = focused
}

// Frame executes one render loop step: applies pending control messages,
// advances the clock, renders the graph, presents the result and pushes it
// to capture. Returned buffer is valid until the next call. Errors other
// than ErrStopped are fatal.
func (s *Session) Frame() (*frame.Buffer, error) {
	if s.stopped() {
		return nil, ErrStopped
	}
	start := time.Now()
	s.inbox.Drain(s.handle)
	if s.stopped() {
		return nil, ErrStopped
	}
	s.transport.Advance()
	out, err := s.graph.Render(graph.Context{
		Time:    s.transport.Time(),
		Beat:    s.transport.Beat(),
		Frame:   s.transport.FrameCount(),
		Pointer: s.pointer,
		Focused: s.focused,
		Inputs:  s.inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if s.surface != nil {
		if err := s.surface.Present(out); err != nil {
			return nil, fmt.Errorf("present: %w", err)
		}
	}
	s.capture(out)
	s.meter.Frame(time.Since(start))
	return out, nil
}

// capture pushes a copy of the frame while playing.
func (s *Session) capture(out *frame.Buffer) {
	if s.sink == nil || !s.view.Screenshot || s.transport.State() != transport.Playing {
		return
	}
	buf := pool.Copy(out)
	if !s.sink.Push(buf, s.transport.FrameCount()-1) {
		s.meter.Drop()
		pool.Free(buf)
		if !s.sink.Enabled() {
			s.captureFailed = true
		}
	}
}

func (s *Session) stopped() bool {
	return s.transport.State() == transport.Stopped
}

// Stop stops the session. It's a shortcut for Stop message applied
// immediately. Calling it again has no effect.
func (s *Session) Stop() {
	if !s.stopped() {
		_ = s.transport.Stop()
	}
}

// Close stops the session and waits for capture to finish. It returns
// capture error if any.
func (s *Session) Close() error {
	s.Stop()
	s.inbox.Close()
	s.graph.Release()
	if s.sink != nil {
		return s.sink.Wait()
	}
	return nil
}
