package input

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"pipelined.dev/wvr/log"
	"pipelined.dev/wvr/uniform"
)

// Registry owns providers by name. It's not safe for concurrent use: only
// the render loop owns it.
type Registry struct {
	env       env
	providers map[string]Provider
	playing   bool
	locked    bool
}

// Option provides a way to set functional parameters to registry.
type Option func(*Registry)

// WithLogger sets logger to registry and its providers.
func WithLogger(l log.Logger) Option {
	return func(r *Registry) {
		r.env.log = l
	}
}

// WithDir sets project directory. Relative resource paths are resolved
// against it.
func WithDir(dir string) Option {
	return func(r *Registry) {
		r.env.dir = dir
	}
}

// WithClock sets wall clock used by video providers.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		r.env.clock = clock
	}
}

// NewRegistry returns empty registry.
func NewRegistry(drivers Drivers, options ...Option) *Registry {
	r := &Registry{
		env: env{
			drivers: drivers,
			clock:   time.Now,
			log:     log.Silent(),
		},
		providers: make(map[string]Provider),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Open creates a provider without registering it. New provider follows
// the registry playback state.
func (r *Registry) Open(name string, cfg Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("input %v: nil config", name)
	}
	p, err := cfg.open(name, r.env)
	if err != nil {
		return nil, err
	}
	p.SetLocked(r.locked)
	if r.playing {
		p.Play()
	} else {
		p.Pause()
	}
	return p, nil
}

// Insert creates provider and registers it. Existing provider with the
// same name is stopped and replaced.
func (r *Registry) Insert(name string, cfg Config) error {
	p, err := r.Open(name, cfg)
	if err != nil {
		return err
	}
	if old, ok := r.providers[name]; ok {
		old.Stop()
	}
	r.providers[name] = p
	r.logger(name).WithField("type", cfg.Type()).Debug("input inserted")
	return nil
}

// Add creates provider and registers it. Existing name is an error.
func (r *Registry) Add(name string, cfg Config) error {
	if _, ok := r.providers[name]; ok {
		return fmt.Errorf("%w: %v", ErrInputExists, name)
	}
	return r.Insert(name, cfg)
}

// Rename moves provider to new name. Provider state is preserved.
func (r *Registry) Rename(from, to string) error {
	p, ok := r.providers[from]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownInput, from)
	}
	if from == to {
		return nil
	}
	if _, ok := r.providers[to]; ok {
		return fmt.Errorf("%w: %v", ErrInputExists, to)
	}
	delete(r.providers, from)
	p.Rename(to)
	r.providers[to] = p
	return nil
}

// Remove stops provider and drops it.
func (r *Registry) Remove(name string) error {
	p, ok := r.providers[name]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownInput, name)
	}
	delete(r.providers, name)
	p.Stop()
	return nil
}

// Update sets property of the named provider.
func (r *Registry) Update(name, key string, value interface{}) error {
	p, ok := r.providers[name]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownInput, name)
	}
	return p.SetProperty(key, value)
}

// Get returns provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns sorted provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sample returns value of the named provider.
func (r *Registry) Sample(name string, time, beat float64) (uniform.Value, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownInput, name)
	}
	return p.Sample(time, beat)
}

// PlayAll resumes all providers.
func (r *Registry) PlayAll() {
	r.playing = true
	for _, p := range r.providers {
		p.Play()
	}
}

// PauseAll pauses all providers.
func (r *Registry) PauseAll() {
	r.playing = false
	for _, p := range r.providers {
		p.Pause()
	}
}

// StopAll stops and drops all providers.
func (r *Registry) StopAll() {
	r.playing = false
	for name, p := range r.providers {
		p.Stop()
		delete(r.providers, name)
	}
}

// SetLocked switches all providers between wall clock and transport time.
func (r *Registry) SetLocked(locked bool) {
	r.locked = locked
	for _, p := range r.providers {
		p.SetLocked(locked)
	}
}

func (r *Registry) logger(name string) log.Logger {
	return r.env.log.WithFields(logrus.Fields{"input": name})
}
