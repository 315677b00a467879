package config

import (
	"errors"
	"fmt"

	"pipelined.dev/wvr/graph"
)

// Validate ensures the configuration is usable.
func (s *Session) Validate() error {
	if s.BPM <= 0 {
		return errors.New("bpm must be positive")
	}
	if err := s.View.validate(); err != nil {
		return err
	}
	for name, in := range s.Inputs {
		if err := in.validate(); err != nil {
			return fmt.Errorf("inputs.%s: %w", name, err)
		}
	}
	names := make(map[string]struct{}, len(s.RenderChain)+1)
	for i, stage := range s.RenderChain {
		if _, ok := names[stage.Name]; ok {
			return fmt.Errorf("render_chain[%d]: duplicate stage name %q", i, stage.Name)
		}
		names[stage.Name] = struct{}{}
		if err := stage.validate(); err != nil {
			return fmt.Errorf("render_chain[%d]: %w", i, err)
		}
	}
	if _, ok := names[s.FinalStage.Name]; ok {
		return fmt.Errorf("final_stage: duplicate stage name %q", s.FinalStage.Name)
	}
	if err := s.FinalStage.validate(); err != nil {
		return fmt.Errorf("final_stage: %w", err)
	}
	return nil
}

func (v View) validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("view: resolution must be positive: %dx%d", v.Width, v.Height)
	}
	if v.TargetFPS <= 0 {
		return errors.New("view.target_fps must be positive")
	}
	return nil
}

func (in Input) validate() error {
	switch in.Type {
	case "video", "picture", "cam":
		if in.Path == "" {
			return errors.New("path must be set")
		}
		if in.Width < 0 || in.Height < 0 {
			return errors.New("size must not be negative")
		}
		if in.FPS < 0 || in.Beats < 0 {
			return errors.New("speed must not be negative")
		}
	case "midi":
		if in.Controller < 0 || in.Controller > 127 {
			return fmt.Errorf("controller must be in [0, 127]: %d", in.Controller)
		}
	default:
		return fmt.Errorf("unknown input type %q", in.Type)
	}
	return nil
}

func (s Stage) validate() error {
	if s.Filter == "" {
		return errors.New("filter must be set")
	}
	if _, err := graph.ParsePrecision(s.Precision); err != nil {
		return err
	}
	for name, b := range s.Inputs {
		if (b.Input == "") == (b.Stage == "") {
			return fmt.Errorf("inputs.%s: exactly one of input or stage must be set", name)
		}
		if _, err := graph.ParseSamplingMode(b.Mode); err != nil {
			return fmt.Errorf("inputs.%s: %w", name, err)
		}
	}
	for name, v := range s.Variables {
		if _, err := v.convert(); err != nil {
			return fmt.Errorf("variables.%s: %w", name, err)
		}
	}
	return nil
}
