package config

import (
	"errors"
	"fmt"

	"pipelined.dev/wvr/automation"
	"pipelined.dev/wvr/graph"
	"pipelined.dev/wvr/input"
	"pipelined.dev/wvr/uniform"
)

// Stages returns render chain and final stage configurations.
func (s *Session) Stages() ([]graph.StageConfig, graph.StageConfig, error) {
	chain := make([]graph.StageConfig, 0, len(s.RenderChain))
	for i, stage := range s.RenderChain {
		cfg, err := stage.StageConfig()
		if err != nil {
			return nil, graph.StageConfig{}, fmt.Errorf("render_chain[%d]: %w", i, err)
		}
		chain = append(chain, cfg)
	}
	final, err := s.FinalStage.StageConfig()
	if err != nil {
		return nil, graph.StageConfig{}, fmt.Errorf("final_stage: %w", err)
	}
	return chain, final, nil
}

// InputConfigs returns provider configurations by name.
func (s *Session) InputConfigs() (map[string]input.Config, error) {
	configs := make(map[string]input.Config, len(s.Inputs))
	for name, in := range s.Inputs {
		cfg, err := in.Config()
		if err != nil {
			return nil, fmt.Errorf("inputs.%s: %w", name, err)
		}
		configs[name] = cfg
	}
	return configs, nil
}

// Config converts input description into provider configuration.
func (in Input) Config() (input.Config, error) {
	switch in.Type {
	case "video":
		return input.VideoConfig{
			Path:   in.Path,
			Width:  in.Width,
			Height: in.Height,
			Speed:  input.Speed{FPS: in.FPS, Beats: in.Beats},
		}, nil
	case "picture":
		return input.PictureConfig{
			Path:   in.Path,
			Width:  in.Width,
			Height: in.Height,
		}, nil
	case "cam":
		return input.CameraConfig{
			Path:   in.Path,
			Width:  in.Width,
			Height: in.Height,
		}, nil
	case "midi":
		return input.MidiConfig{
			Port:       in.Port,
			Controller: in.Controller,
			Default:    in.Default,
		}, nil
	}
	return nil, fmt.Errorf("unknown input type %q", in.Type)
}

// StageConfig converts stage description into graph configuration.
func (s Stage) StageConfig() (graph.StageConfig, error) {
	precision, err := graph.ParsePrecision(s.Precision)
	if err != nil {
		return graph.StageConfig{}, err
	}
	cfg := graph.StageConfig{
		Name:      s.Name,
		Filter:    s.Filter,
		Precision: precision,
		Inputs:    make(map[string]graph.SampledInput, len(s.Inputs)),
		Variables: make(map[string]graph.Variable, len(s.Variables)),
	}
	for name, b := range s.Inputs {
		in, err := b.SampledInput()
		if err != nil {
			return graph.StageConfig{}, fmt.Errorf("inputs.%s: %w", name, err)
		}
		cfg.Inputs[name] = in
	}
	for name, v := range s.Variables {
		variable, err := v.convert()
		if err != nil {
			return graph.StageConfig{}, fmt.Errorf("variables.%s: %w", name, err)
		}
		cfg.Variables[name] = variable
	}
	return cfg, nil
}

// SampledInput converts binding description.
func (b Binding) SampledInput() (graph.SampledInput, error) {
	mode, err := graph.ParseSamplingMode(b.Mode)
	if err != nil {
		return graph.SampledInput{}, err
	}
	if b.Stage != "" {
		return graph.SampledInput{Kind: graph.FromStage, Name: b.Stage, Mode: mode}, nil
	}
	return graph.SampledInput{Kind: graph.FromInput, Name: b.Input, Mode: mode}, nil
}

func (v Variable) convert() (graph.Variable, error) {
	var (
		result graph.Variable
		err    error
	)
	if v.Value == nil && v.Automation == nil {
		return result, errors.New("value or automation must be set")
	}
	if v.Value != nil {
		if result.Value, err = uniform.Parse(v.Value); err != nil {
			return result, err
		}
	}
	if v.Automation != nil {
		if result.Curve, err = v.Automation.Curve(); err != nil {
			return result, fmt.Errorf("automation: %w", err)
		}
	}
	return result, nil
}

// Curve converts automation description. Integer and float keyframe
// values are mixed freely, all of them are treated as floats then.
func (a Automation) Curve() (*automation.Curve, error) {
	domain, err := automation.ParseDomain(a.Domain)
	if err != nil {
		return nil, err
	}
	interpolation, err := automation.ParseInterpolation(a.Interpolation)
	if err != nil {
		return nil, err
	}
	keyframes := make([]automation.Keyframe, 0, len(a.Keyframes))
	floats := false
	for i, kf := range a.Keyframes {
		if len(kf) != 2 {
			return nil, fmt.Errorf("keyframe %d: expected [position, value]", i)
		}
		position, ok := number(kf[0])
		if !ok {
			return nil, fmt.Errorf("keyframe %d: position is %T", i, kf[0])
		}
		value, err := uniform.Parse(kf[1])
		if err != nil {
			return nil, fmt.Errorf("keyframe %d: %w", i, err)
		}
		floats = floats || value.Kind() == uniform.KindFloat
		keyframes = append(keyframes, automation.Keyframe{Position: position, Value: value})
	}
	if floats {
		for i := range keyframes {
			if v, err := uniform.Convert(keyframes[i].Value, uniform.KindFloat); err == nil {
				keyframes[i].Value = v
			}
		}
	}
	return automation.NewCurve(domain, interpolation, keyframes...)
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
