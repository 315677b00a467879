package graph

import (
	"errors"
	"fmt"

	"pipelined.dev/wvr/automation"
	"pipelined.dev/wvr/uniform"
)

// Update is a mutation of a single stage. Each update either applies fully
// or leaves the stage unchanged.
type Update interface {
	apply(*Graph, *Stage) error
}

type (
	// SetFilter swaps the filter. Program is recompiled and variables are
	// rebound against the new schema.
	SetFilter struct {
		Filter string
	}

	// SetVariable assigns raw value. Active automation of the variable is
	// cancelled: manual value always wins.
	SetVariable struct {
		Name  string
		Value uniform.Value
	}

	// SetAutomation swaps automation curve of the variable. Nil curve
	// removes automation.
	SetAutomation struct {
		Name  string
		Curve *automation.Curve
	}

	// SetBinding binds the source to the program slot.
	SetBinding struct {
		Name  string
		Input SampledInput
	}

	// RemoveBinding unbinds the program slot.
	RemoveBinding struct {
		Name string
	}

	// SetPrecision changes output precision.
	SetPrecision struct {
		Precision Precision
	}

	// Rename changes stage name.
	Rename struct {
		Name string
	}
)

// ErrUnknownBinding is returned when removed binding doesn't exist.
var ErrUnknownBinding = errors.New("unknown binding")

func (u SetFilter) apply(g *Graph, s *Stage) error {
	source, program, err := g.compile(u.Filter)
	if err != nil {
		return err
	}
	s.release()
	s.filter = source
	s.program = program
	s.rebind(s.variables)
	return nil
}

func (u SetVariable) apply(_ *Graph, s *Stage) error {
	if u.Value == nil {
		return fmt.Errorf("variable %v: %w", u.Name, uniform.ErrUnsupportedValue)
	}
	return s.setValue(u.Name, u.Value)
}

func (u SetAutomation) apply(_ *Graph, s *Stage) error {
	return s.setCurve(u.Name, u.Curve)
}

func (u SetBinding) apply(_ *Graph, s *Stage) error {
	s.bindings[u.Name] = u.Input
	delete(s.missing, u.Name)
	return nil
}

func (u RemoveBinding) apply(_ *Graph, s *Stage) error {
	if _, ok := s.bindings[u.Name]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownBinding, u.Name)
	}
	delete(s.bindings, u.Name)
	delete(s.missing, u.Name)
	return nil
}

func (u SetPrecision) apply(_ *Graph, s *Stage) error {
	s.precision = u.Precision
	return nil
}

func (u Rename) apply(g *Graph, s *Stage) error {
	if err := g.checkName(u.Name, s); err != nil {
		return err
	}
	s.name = u.Name
	return nil
}
