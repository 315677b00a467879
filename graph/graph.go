// Package graph implements the render chain: an ordered list of interior
// stages followed by a single final stage. The graph is owned by the render
// loop and is not safe for concurrent use.
package graph

import (
	"errors"
	"fmt"

	"pipelined.dev/wvr/log"
)

var (
	// ErrIndexOutOfRange is returned when stage index is not valid.
	ErrIndexOutOfRange = errors.New("stage index out of range")
	// ErrDuplicateName is returned when stage name is already used.
	ErrDuplicateName = errors.New("stage name already used")
	// ErrUnknownStage is returned when stage name is not found.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrUnknownVariable is returned when variable is not declared by filter.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrInvalidSize is returned when resolution is not positive.
	ErrInvalidSize = errors.New("invalid resolution")
)

// StageError is returned when operation on a stage fails.
type StageError struct {
	Stage string
	Op    string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %v: %v: %v", e.Stage, e.Op, e.Err)
}

// Unwrap returns underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Graph is the render chain.
type Graph struct {
	device  Device
	catalog Catalog
	stages  []*Stage
	final   *Stage

	width  int
	height int
	// resize is applied at the beginning of the next pass.
	resize *[2]int

	log log.Logger
}

// Option provides a way to set functional parameters to graph.
type Option func(*Graph)

// WithLogger sets logger to graph.
func WithLogger(l log.Logger) Option {
	return func(g *Graph) {
		g.log = l
	}
}

// New builds all stages. Any failure is returned, since it happens during
// session construction.
func New(device Device, catalog Catalog, width, height int, chain []StageConfig, final StageConfig, options ...Option) (*Graph, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	g := &Graph{
		device:  device,
		catalog: catalog,
		width:   width,
		height:  height,
		stages:  make([]*Stage, 0, len(chain)),
		log:     log.Silent(),
	}
	for _, option := range options {
		option(g)
	}
	for _, cfg := range chain {
		if err := g.AddStage(cfg); err != nil {
			g.Release()
			return nil, err
		}
	}
	if err := g.checkName(final.Name, nil); err != nil {
		g.Release()
		return nil, &StageError{Stage: final.Name, Op: "create final", Err: err}
	}
	s, err := g.newStage(final)
	if err != nil {
		g.Release()
		return nil, &StageError{Stage: final.Name, Op: "create final", Err: err}
	}
	g.final = s
	return g, nil
}

// compile resolves filter by name and compiles it.
func (g *Graph) compile(name string) (FilterSource, Program, error) {
	source, err := g.catalog.Resolve(name)
	if err != nil {
		return FilterSource{}, nil, fmt.Errorf("resolve filter %v: %w", name, err)
	}
	program, err := g.device.Compile(source)
	if err != nil {
		return FilterSource{}, nil, fmt.Errorf("compile filter %v: %w", name, err)
	}
	return source, program, nil
}

// checkName returns error if name is used by a stage other than self.
func (g *Graph) checkName(name string, self *Stage) error {
	for _, s := range g.stages {
		if s != self && s.name == name {
			return fmt.Errorf("%w: %v", ErrDuplicateName, name)
		}
	}
	if g.final != nil && g.final != self && g.final.name == name {
		return fmt.Errorf("%w: %v", ErrDuplicateName, name)
	}
	return nil
}

// AddStage builds new stage and appends it to the chain.
func (g *Graph) AddStage(cfg StageConfig) error {
	if err := g.checkName(cfg.Name, nil); err != nil {
		return &StageError{Stage: cfg.Name, Op: "add", Err: err}
	}
	s, err := g.newStage(cfg)
	if err != nil {
		return &StageError{Stage: cfg.Name, Op: "add", Err: err}
	}
	g.stages = append(g.stages, s)
	return nil
}

// RemoveStage drops the stage at index. Bindings of other stages are not
// touched.
func (g *Graph) RemoveStage(index int) error {
	if err := g.checkIndex(index); err != nil {
		return err
	}
	s := g.stages[index]
	copy(g.stages[index:], g.stages[index+1:])
	g.stages[len(g.stages)-1] = nil
	g.stages = g.stages[:len(g.stages)-1]
	s.release()
	return nil
}

// MoveStage changes position of a stage. Bindings are not touched.
func (g *Graph) MoveStage(from, to int) error {
	if err := g.checkIndex(from); err != nil {
		return err
	}
	if err := g.checkIndex(to); err != nil {
		return err
	}
	s := g.stages[from]
	if from < to {
		copy(g.stages[from:to], g.stages[from+1:to+1])
	} else {
		copy(g.stages[to+1:from+1], g.stages[to:from])
	}
	g.stages[to] = s
	return nil
}

// UpdateStage applies update to the stage at index.
func (g *Graph) UpdateStage(index int, u Update) error {
	if err := g.checkIndex(index); err != nil {
		return err
	}
	s := g.stages[index]
	if err := u.apply(g, s); err != nil {
		return &StageError{Stage: s.name, Op: fmt.Sprintf("%T", u), Err: err}
	}
	return nil
}

// UpdateFinal applies update to the final stage.
func (g *Graph) UpdateFinal(u Update) error {
	if err := u.apply(g, g.final); err != nil {
		return &StageError{Stage: g.final.name, Op: fmt.Sprintf("%T", u), Err: err}
	}
	return nil
}

// Resize requests new resolution. Buffers are resized before the next
// render pass.
func (g *Graph) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	g.resize = &[2]int{width, height}
	return nil
}

// Resolution returns current internal resolution. Pending resize is not
// taken into account.
func (g *Graph) Resolution() (int, int) {
	return g.width, g.height
}

// Len returns number of interior stages.
func (g *Graph) Len() int {
	return len(g.stages)
}

// Stage returns interior stage at index.
func (g *Graph) Stage(index int) (*Stage, error) {
	if err := g.checkIndex(index); err != nil {
		return nil, err
	}
	return g.stages[index], nil
}

// Stages returns interior stages in render order.
func (g *Graph) Stages() []*Stage {
	stages := make([]*Stage, len(g.stages))
	copy(stages, g.stages)
	return stages
}

// Final returns final stage.
func (g *Graph) Final() *Stage {
	return g.final
}

// Index returns position of the named interior stage or -1.
func (g *Graph) Index(name string) int {
	for i, s := range g.stages {
		if s.name == name {
			return i
		}
	}
	return -1
}

// Lookup returns the named stage. Final stage is looked up too.
func (g *Graph) Lookup(name string) (*Stage, error) {
	if i := g.Index(name); i >= 0 {
		return g.stages[i], nil
	}
	if g.final != nil && g.final.name == name {
		return g.final, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownStage, name)
}

// Release frees all compiled programs.
func (g *Graph) Release() {
	for _, s := range g.stages {
		s.release()
	}
	if g.final != nil {
		g.final.release()
	}
}

func (g *Graph) checkIndex(index int) error {
	if index < 0 || index >= len(g.stages) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(g.stages))
	}
	return nil
}
