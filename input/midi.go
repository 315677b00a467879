package input

import (
	"fmt"
	"sync"
	"sync/atomic"

	"pipelined.dev/wvr/log"
	"pipelined.dev/wvr/uniform"
)

const (
	controlChange = 0xB0
	controllers   = 128
	maxValue      = 127
)

// Midi tracks control change values of a port. Sample returns the value of
// the configured controller normalized to [0, 1].
type Midi struct {
	name       atomic.Pointer[string]
	port       Port
	controller int
	def        float64
	// values hold last received value of each controller, -1 until the
	// first message.
	values  [controllers]atomic.Int32
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
	log     log.Logger
}

func (c MidiConfig) open(name string, e env) (Provider, error) {
	if c.Controller < 0 || c.Controller >= controllers {
		return nil, fmt.Errorf("midi %v: %w: controller %d", name, ErrInvalidProperty, c.Controller)
	}
	if e.drivers.OpenMidi == nil {
		return nil, fmt.Errorf("open midi %v: %w", c.Port, ErrNoDriver)
	}
	port, err := e.drivers.OpenMidi(c.Port)
	if err != nil {
		return nil, fmt.Errorf("open midi %v: %w", c.Port, err)
	}
	return NewMidi(name, port, c.Controller, c.Default, e.log), nil
}

// NewMidi starts reading the port.
func NewMidi(name string, p Port, controller int, def float64, l log.Logger) *Midi {
	if l == nil {
		l = log.Silent()
	}
	m := &Midi{
		port:       p,
		controller: controller,
		def:        def,
		done:       make(chan struct{}),
		log:        l,
	}
	m.name.Store(&name)
	for i := range m.values {
		m.values[i].Store(-1)
	}
	go m.run()
	return m
}

func (m *Midi) run() {
	defer close(m.done)
	for {
		msg, err := m.port.Read()
		if err != nil {
			if !m.stopped.Load() {
				m.logger().Warnf("midi port stopped: %v", err)
			}
			return
		}
		if len(msg) < 3 || msg[0]&0xF0 != controlChange {
			continue
		}
		m.values[msg[1]&0x7F].Store(int32(msg[2] & 0x7F))
	}
}

// Name returns input name.
func (m *Midi) Name() string {
	return *m.name.Load()
}

// Rename changes input name.
func (m *Midi) Rename(name string) {
	m.name.Store(&name)
}

func (m *Midi) logger() log.Logger {
	return m.log.WithField("input", m.Name())
}

// Value returns normalized value of the controller.
func (m *Midi) Value(controller int) float64 {
	v := m.values[controller].Load()
	if v < 0 {
		return m.def
	}
	return float64(v) / maxValue
}

// Sample returns the value of configured controller.
func (m *Midi) Sample(_, _ float64) (uniform.Value, error) {
	if m.stopped.Load() {
		return nil, fmt.Errorf("midi %v: %w", m.Name(), ErrStopped)
	}
	return uniform.Float(m.Value(m.controller)), nil
}

// SetProperty supports "controller" and "default".
func (m *Midi) SetProperty(key string, value interface{}) error {
	if key != "controller" && key != "default" {
		return fmt.Errorf("midi %v: %w: %v", m.Name(), ErrUnknownProperty, key)
	}
	v, err := number(key, value)
	if err != nil {
		return err
	}
	if key == "default" {
		m.def = v
		return nil
	}
	if v < 0 || v >= controllers || v != float64(int(v)) {
		return fmt.Errorf("%w: controller %v", ErrInvalidProperty, v)
	}
	m.controller = int(v)
	return nil
}

// Play does nothing, controllers are always live.
func (m *Midi) Play() {}

// Pause does nothing.
func (m *Midi) Pause() {}

// SetLocked does nothing.
func (m *Midi) SetLocked(bool) {}

// Stop closes the port and waits for the reading goroutine.
func (m *Midi) Stop() {
	m.once.Do(func() {
		m.stopped.Store(true)
		if err := m.port.Close(); err != nil {
			m.logger().Warnf("close midi: %v", err)
		}
		<-m.done
	})
}
