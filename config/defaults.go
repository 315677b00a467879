package config

import (
	"fmt"
	"strings"
)

// Defaults.
const (
	DefaultBPM            = 120
	DefaultWidth          = 1280
	DefaultHeight         = 720
	DefaultTargetFPS      = 60
	DefaultScreenshotPath = "output"
	DefaultFinalStage     = "final"
)

// Default returns an empty session with default settings.
func Default() Session {
	s := Session{}
	s.Normalize()
	return s
}

// Normalize fills missing settings with defaults.
func (s *Session) Normalize() {
	if s.BPM == 0 {
		s.BPM = DefaultBPM
	}
	if s.View.Width == 0 {
		s.View.Width = DefaultWidth
	}
	if s.View.Height == 0 {
		s.View.Height = DefaultHeight
	}
	if s.View.TargetFPS == 0 {
		s.View.TargetFPS = DefaultTargetFPS
	}
	if strings.TrimSpace(s.View.ScreenshotPath) == "" {
		s.View.ScreenshotPath = DefaultScreenshotPath
	}
	for name, in := range s.Inputs {
		in.Type = strings.ToLower(strings.TrimSpace(in.Type))
		if in.Type == "camera" {
			in.Type = "cam"
		}
		s.Inputs[name] = in
	}
	for i := range s.RenderChain {
		if s.RenderChain[i].Name == "" {
			s.RenderChain[i].Name = fmt.Sprintf("stage%d", i)
		}
		s.RenderChain[i].normalize()
	}
	if s.FinalStage.Name == "" {
		s.FinalStage.Name = DefaultFinalStage
	}
	s.FinalStage.normalize()
}

func (s *Stage) normalize() {
	s.Precision = strings.ToLower(strings.TrimSpace(s.Precision))
	if s.Precision == "" {
		s.Precision = "u8"
	}
}
