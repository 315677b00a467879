// Package config loads, normalizes and validates session configuration.
//
// A project is a directory with a TOML file describing the inputs, the
// render chain and the view. Resource paths in the file are relative to
// the project directory. Use Load to obtain a configuration with defaults
// applied, and convert it with Stages and InputConfigs.
package config

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample.toml
var sampleConfig string

type (
	// Session is the complete configuration of a session.
	Session struct {
		BPM         float64          `toml:"bpm"`
		View        View             `toml:"view"`
		Inputs      map[string]Input `toml:"inputs"`
		RenderChain []Stage          `toml:"render_chain"`
		FinalStage  Stage            `toml:"final_stage"`

		// Path is the project directory. It's set by Load.
		Path string `toml:"-"`
	}

	// View contains presentation and timing settings.
	View struct {
		Width          int     `toml:"width"`
		Height         int     `toml:"height"`
		TargetFPS      float64 `toml:"target_fps"`
		VSync          bool    `toml:"vsync"`
		Fullscreen     bool    `toml:"fullscreen"`
		Dynamic        bool    `toml:"dynamic"`
		LockedSpeed    bool    `toml:"locked_speed"`
		Screenshot     bool    `toml:"screenshot"`
		ScreenshotPath string  `toml:"screenshot_path"`
	}

	// Input describes a named signal source. Fields used depend on type:
	// video (path, width, height, fps, beats), picture (path, width,
	// height), cam (path, width, height) and midi (port, controller,
	// default).
	Input struct {
		Type       string  `toml:"type"`
		Path       string  `toml:"path"`
		Width      int     `toml:"width"`
		Height     int     `toml:"height"`
		FPS        float64 `toml:"fps"`
		Beats      float64 `toml:"beats"`
		Port       string  `toml:"port"`
		Controller int     `toml:"controller"`
		Default    float64 `toml:"default"`
	}

	// Stage describes a filter pass.
	Stage struct {
		Name      string              `toml:"name"`
		Filter    string              `toml:"filter"`
		Precision string              `toml:"precision"`
		Inputs    map[string]Binding  `toml:"inputs"`
		Variables map[string]Variable `toml:"variables"`
	}

	// Binding connects a program slot to either an input or a stage.
	Binding struct {
		Input string `toml:"input"`
		Stage string `toml:"stage"`
		Mode  string `toml:"mode"`
	}

	// Variable is a uniform value with optional automation.
	Variable struct {
		Value      interface{} `toml:"value"`
		Automation *Automation `toml:"automation"`
	}

	// Automation is a keyframe curve. Each keyframe is a pair of position
	// and value.
	Automation struct {
		Domain        string          `toml:"domain"`
		Interpolation string          `toml:"interpolation"`
		Keyframes     [][]interface{} `toml:"keyframes"`
	}
)

// Sample returns annotated sample configuration.
func Sample() string {
	return sampleConfig
}

// Load reads the file, applies defaults and validates the result. Project
// directory is the directory of the file.
func Load(path string) (*Session, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	cfg, err := Parse(file)
	if err != nil {
		return nil, err
	}
	cfg.Path = filepath.Dir(abs)
	return cfg, nil
}

// Parse decodes configuration, applies defaults and validates the result.
func Parse(r io.Reader) (*Session, error) {
	var cfg Session
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// OutputDir returns capture directory resolved against project directory.
func (s *Session) OutputDir() string {
	if filepath.IsAbs(s.View.ScreenshotPath) {
		return s.View.ScreenshotPath
	}
	return filepath.Join(s.Path, s.View.ScreenshotPath)
}
