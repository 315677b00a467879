package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/wvr/automation"
	"pipelined.dev/wvr/config"
	"pipelined.dev/wvr/graph"
	"pipelined.dev/wvr/input"
	"pipelined.dev/wvr/uniform"
)

func TestLoadSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wvr.toml")
	require.NoError(t, os.WriteFile(path, []byte(config.Sample()), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Path)
	assert.Equal(t, 120.0, cfg.BPM)
	assert.Equal(t, 1280, cfg.View.Width)
	assert.True(t, cfg.View.VSync)
	assert.Equal(t, filepath.Join(dir, "output"), cfg.OutputDir())

	inputs, err := cfg.InputConfigs()
	require.NoError(t, err)
	assert.Equal(t, input.PictureConfig{Path: "logo.png", Width: 512, Height: 512}, inputs["logo"])
	assert.Equal(t, input.MidiConfig{Port: "nanoKONTROL2", Controller: 16, Default: 0.5}, inputs["knob"])

	chain, final, err := cfg.Stages()
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "background", chain[0].Name)
	assert.Equal(t, uniform.Vec4{0.1, 0.1, 0.2, 1}, chain[0].Variables["color"].Value)

	blend := chain[1]
	assert.Equal(t, graph.SampledInput{Kind: graph.FromStage, Name: "background"}, blend.Inputs["a"])
	assert.Equal(t, graph.SampledInput{Kind: graph.FromInput, Name: "logo", Mode: graph.Linear}, blend.Inputs["b"])
	amount := blend.Variables["amount"]
	assert.Equal(t, uniform.Float(0.5), amount.Value)
	require.NotNil(t, amount.Curve)
	assert.Equal(t, automation.Beat, amount.Curve.Domain())
	assert.Equal(t, automation.Smooth, amount.Curve.Interpolation())
	assert.Equal(t, uniform.Float(1), amount.Curve.Evaluate(4))

	assert.Equal(t, "out", final.Name)
	assert.Equal(t, "passthrough", final.Filter)
	assert.Equal(t, graph.U8, final.Precision)
}

func TestDefaults(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(`
[inputs.clip]
type = "Video"
path = "clip"
beats = 8.0

[inputs.cam]
type = "camera"
path = "/dev/video0"

[[render_chain]]
filter = "solid"

[[render_chain]]
filter = "invert"
precision = "F16"
[render_chain.inputs.input]
stage = "stage0"
mode = "nearest"

[final_stage]
filter = "passthrough"
`))
	require.NoError(t, err)
	assert.Equal(t, float64(config.DefaultBPM), cfg.BPM)
	assert.Equal(t, config.DefaultWidth, cfg.View.Width)
	assert.Equal(t, config.DefaultHeight, cfg.View.Height)
	assert.Equal(t, float64(config.DefaultTargetFPS), cfg.View.TargetFPS)
	assert.Equal(t, config.DefaultScreenshotPath, cfg.View.ScreenshotPath)

	inputs, err := cfg.InputConfigs()
	require.NoError(t, err)
	assert.Equal(t, input.VideoConfig{Path: "clip", Speed: input.Speed{Beats: 8}}, inputs["clip"])
	assert.Equal(t, input.CameraConfig{Path: "/dev/video0"}, inputs["cam"])

	chain, final, err := cfg.Stages()
	require.NoError(t, err)
	assert.Equal(t, "stage0", chain[0].Name)
	assert.Equal(t, "stage1", chain[1].Name)
	assert.Equal(t, graph.F16, chain[1].Precision)
	assert.Equal(t, graph.Nearest, chain[1].Inputs["input"].Mode)
	assert.Equal(t, config.DefaultFinalStage, final.Name)

	d := config.Default()
	assert.Equal(t, float64(config.DefaultBPM), d.BPM)
	assert.Equal(t, config.DefaultFinalStage, d.FinalStage.Name)
}

func TestAutomationKeyframes(t *testing.T) {
	tests := []struct {
		description string
		automation  config.Automation
		at          float64
		expected    uniform.Value
		err         bool
	}{
		{
			description: "mixed ints and floats",
			automation: config.Automation{
				Keyframes: [][]interface{}{{int64(0), int64(0)}, {int64(2), 1.0}},
			},
			at:       1,
			expected: uniform.Float(0.5),
		},
		{
			description: "vectors",
			automation: config.Automation{
				Interpolation: "step",
				Keyframes: [][]interface{}{
					{0.0, []interface{}{1.0, 0.0}},
					{1.0, []interface{}{0.0, 1.0}},
				},
			},
			at:       0.5,
			expected: uniform.Vec2{1, 0},
		},
		{
			description: "unsorted",
			automation: config.Automation{
				Keyframes: [][]interface{}{{1.0, 0.0}, {0.0, 1.0}},
			},
			err: true,
		},
		{
			description: "malformed keyframe",
			automation: config.Automation{
				Keyframes: [][]interface{}{{1.0}},
			},
			err: true,
		},
		{
			description: "unknown domain",
			automation: config.Automation{
				Domain:    "bars",
				Keyframes: [][]interface{}{{0.0, 0.0}},
			},
			err: true,
		},
	}
	for _, test := range tests {
		c, err := test.automation.Curve()
		if test.err {
			assert.Error(t, err, test.description)
			continue
		}
		require.NoError(t, err, test.description)
		assert.Equal(t, test.expected, c.Evaluate(test.at), test.description)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		description string
		config      string
	}{
		{
			description: "negative bpm",
			config:      "bpm = -1.0\n[final_stage]\nfilter = \"solid\"",
		},
		{
			description: "missing final filter",
			config:      "bpm = 120.0",
		},
		{
			description: "unknown input type",
			config:      "[inputs.x]\ntype = \"hologram\"\n[final_stage]\nfilter = \"solid\"",
		},
		{
			description: "input without path",
			config:      "[inputs.x]\ntype = \"picture\"\n[final_stage]\nfilter = \"solid\"",
		},
		{
			description: "midi controller out of range",
			config:      "[inputs.x]\ntype = \"midi\"\ncontroller = 128\n[final_stage]\nfilter = \"solid\"",
		},
		{
			description: "duplicate stage",
			config:      "[[render_chain]]\nname = \"a\"\nfilter = \"solid\"\n[[render_chain]]\nname = \"a\"\nfilter = \"solid\"\n[final_stage]\nfilter = \"solid\"",
		},
		{
			description: "final stage shares name",
			config:      "[[render_chain]]\nname = \"a\"\nfilter = \"solid\"\n[final_stage]\nname = \"a\"\nfilter = \"solid\"",
		},
		{
			description: "binding with both sources",
			config:      "[final_stage]\nfilter = \"mix\"\n[final_stage.inputs.a]\ninput = \"x\"\nstage = \"y\"",
		},
		{
			description: "unknown sampling mode",
			config:      "[final_stage]\nfilter = \"mix\"\n[final_stage.inputs.a]\ninput = \"x\"\nmode = \"cubic\"",
		},
		{
			description: "unknown precision",
			config:      "[final_stage]\nfilter = \"mix\"\nprecision = \"f64\"",
		},
		{
			description: "empty variable",
			config:      "[final_stage]\nfilter = \"mix\"\n[final_stage.variables.amount]",
		},
		{
			description: "unsupported variable value",
			config:      "[final_stage]\nfilter = \"mix\"\n[final_stage.variables.amount]\nvalue = \"half\"",
		},
		{
			description: "unknown field",
			config:      "tempo = 120.0\n[final_stage]\nfilter = \"solid\"",
		},
		{
			description: "zero resolution",
			config:      "[view]\nwidth = -1\n[final_stage]\nfilter = \"solid\"",
		},
	}
	for _, test := range tests {
		_, err := config.Parse(strings.NewReader(test.config))
		assert.Error(t, err, test.description)
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
