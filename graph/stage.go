package graph

import (
	"fmt"
	"sort"

	"github.com/rs/xid"

	"pipelined.dev/wvr/automation"
	"pipelined.dev/wvr/frame"
	"pipelined.dev/wvr/uniform"
)

// SourceKind tells where the bound signal comes from.
type SourceKind int

// Source kinds.
const (
	FromInput SourceKind = iota
	FromStage
)

func (k SourceKind) String() string {
	if k == FromStage {
		return "stage"
	}
	return "input"
}

type (
	// SampledInput binds a named source to a program slot. Sources are
	// referenced by name, so reordering stages never requires rebinding.
	SampledInput struct {
		Kind SourceKind
		Name string
		Mode SamplingMode
	}

	// Variable is a uniform with optional automation. When curve is set,
	// it takes over the raw value.
	Variable struct {
		Value uniform.Value
		Curve *automation.Curve
	}

	// StageConfig describes a stage to build.
	StageConfig struct {
		Name      string
		Filter    string
		Precision Precision
		Inputs    map[string]SampledInput
		Variables map[string]Variable
	}
)

// Stage is a single filter pass in the render chain.
type Stage struct {
	id        xid.ID
	name      string
	filter    FilterSource
	program   Program
	precision Precision
	bindings  map[string]SampledInput
	variables map[string]*Variable

	// front holds the last completed output, back is rendered into.
	front *frame.Buffer
	back  *frame.Buffer

	// missing tracks bindings reported as unresolved.
	missing map[string]struct{}
}

// ID returns unique stage identity. It never changes during the session.
func (s *Stage) ID() string {
	return s.id.String()
}

// Name returns stage name.
func (s *Stage) Name() string {
	return s.name
}

// Filter returns name of the filter stage renders with.
func (s *Stage) Filter() string {
	return s.filter.Name
}

// Precision returns output precision.
func (s *Stage) Precision() Precision {
	return s.precision
}

// Output returns last rendered buffer.
func (s *Stage) Output() *frame.Buffer {
	return s.front
}

// Bindings returns a copy of stage bindings.
func (s *Stage) Bindings() map[string]SampledInput {
	b := make(map[string]SampledInput, len(s.bindings))
	for k, v := range s.bindings {
		b[k] = v
	}
	return b
}

// Variable returns a copy of the named variable.
func (s *Stage) Variable(name string) (Variable, bool) {
	v, ok := s.variables[name]
	if !ok {
		return Variable{}, false
	}
	return *v, true
}

// VariableNames returns sorted names of stage variables.
func (s *Stage) VariableNames() []string {
	names := make([]string, 0, len(s.variables))
	for name := range s.variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Stage) String() string {
	return fmt.Sprintf("%v %v", s.name, s.id)
}

// newStage resolves and compiles the filter and fills variables.
func (g *Graph) newStage(cfg StageConfig) (*Stage, error) {
	source, program, err := g.compile(cfg.Filter)
	if err != nil {
		return nil, err
	}
	s := &Stage{
		id:        xid.New(),
		name:      cfg.Name,
		filter:    source,
		program:   program,
		precision: cfg.Precision,
		bindings:  make(map[string]SampledInput, len(cfg.Inputs)),
		variables: make(map[string]*Variable),
		front:     frame.New(g.width, g.height),
		back:      frame.New(g.width, g.height),
		missing:   make(map[string]struct{}),
	}
	for name, in := range cfg.Inputs {
		s.bindings[name] = in
	}
	s.rebind(nil)
	for name, v := range cfg.Variables {
		if v.Value != nil {
			if err := s.setValue(name, v.Value); err != nil {
				g.log.WithField("stage", s.name).Warnf("variable dropped: %v", err)
				continue
			}
		}
		if v.Curve != nil {
			if err := s.setCurve(name, v.Curve); err != nil {
				g.log.WithField("stage", s.name).Warnf("automation dropped: %v", err)
			}
		}
	}
	return s, nil
}

// rebind builds variables from the filter schema. Values of previous
// variables are kept if the name is still declared with the same kind.
func (s *Stage) rebind(previous map[string]*Variable) {
	variables := make(map[string]*Variable, len(s.filter.Uniforms))
	for _, u := range s.filter.Uniforms {
		if prev, ok := previous[u.Name]; ok && prev.Value != nil && prev.Value.Kind() == u.Kind {
			variables[u.Name] = &Variable{Value: prev.Value, Curve: prev.Curve}
			continue
		}
		variables[u.Name] = &Variable{Value: u.defaultValue()}
	}
	s.variables = variables
}

// setValue assigns raw value and cancels automation.
func (s *Stage) setValue(name string, value uniform.Value) error {
	spec, ok := s.filter.Uniform(name)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownVariable, name)
	}
	v, err := uniform.Convert(value, spec.Kind)
	if err != nil {
		return fmt.Errorf("variable %v: %w", name, err)
	}
	s.variables[name] = &Variable{Value: v}
	return nil
}

// setCurve swaps automation curve. Nil curve removes automation and keeps
// the raw value.
func (s *Stage) setCurve(name string, c *automation.Curve) error {
	spec, ok := s.filter.Uniform(name)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownVariable, name)
	}
	if c != nil && c.Kind() != spec.Kind {
		converted, err := convertCurve(c, spec.Kind)
		if err != nil {
			return fmt.Errorf("variable %v: %w", name, err)
		}
		c = converted
	}
	v := s.variables[name]
	s.variables[name] = &Variable{Value: v.Value, Curve: c}
	return nil
}

// convertCurve returns a copy of the curve with keyframe values converted
// to kind k. Integer keyframes of float uniforms are common in TOML files.
func convertCurve(c *automation.Curve, k uniform.Kind) (*automation.Curve, error) {
	keyframes := c.Keyframes()
	for i := range keyframes {
		v, err := uniform.Convert(keyframes[i].Value, k)
		if err != nil {
			return nil, fmt.Errorf("curve of %v for %v: %w", c.Kind(), k, err)
		}
		keyframes[i].Value = v
	}
	return automation.NewCurve(c.Domain(), c.Interpolation(), keyframes...)
}

// evaluate returns current variable values.
func (s *Stage) evaluate(time, beat float64) map[string]uniform.Value {
	values := make(map[string]uniform.Value, len(s.variables))
	for name, v := range s.variables {
		if v.Curve != nil {
			values[name] = v.Curve.At(time, beat)
			continue
		}
		values[name] = v.Value
	}
	return values
}

func (s *Stage) resize(width, height int) {
	s.front.Resize(width, height)
	s.back.Resize(width, height)
}

func (s *Stage) release() {
	if s.program != nil {
		s.program.Release()
		s.program = nil
	}
}
