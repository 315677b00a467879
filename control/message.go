// Package control defines the decoded messages which mutate a running
// session and the inbox which delivers them to the render loop.
package control

import (
	"pipelined.dev/wvr/graph"
	"pipelined.dev/wvr/input"
)

// Message is a decoded control message.
type Message interface {
	message()
}

type (
	// Start starts or resumes the playback.
	Start struct{}

	// Pause pauses the playback.
	Pause struct{}

	// Stop stops the session. Stopped session can't be started again.
	Stop struct{}

	// InsertInput adds input or replaces existing one.
	InsertInput struct {
		Name   string
		Config input.Config
	}

	// AddInput adds new input.
	AddInput struct {
		Name   string
		Config input.Config
	}

	// RenameInput changes input name.
	RenameInput struct {
		From string
		To   string
	}

	// RemoveInput stops and removes input.
	RemoveInput struct {
		Name string
	}

	// UpdateInput sets input property.
	UpdateInput struct {
		Name  string
		Key   string
		Value interface{}
	}

	// AddStage appends stage to the render chain.
	AddStage struct {
		Config graph.StageConfig
	}

	// RemoveStage removes stage at index.
	RemoveStage struct {
		Index int
	}

	// MoveStage moves stage between indices.
	MoveStage struct {
		From int
		To   int
	}

	// UpdateStage mutates stage at index.
	UpdateStage struct {
		Index  int
		Update graph.Update
	}

	// UpdateFinalStage mutates the final stage.
	UpdateFinalStage struct {
		Update graph.Update
	}

	// Set changes session setting.
	Set struct {
		Setting Setting
	}
)

func (Start) message()            {}
func (Pause) message()            {}
func (Stop) message()             {}
func (InsertInput) message()      {}
func (AddInput) message()         {}
func (RenameInput) message()      {}
func (RemoveInput) message()      {}
func (UpdateInput) message()      {}
func (AddStage) message()         {}
func (RemoveStage) message()      {}
func (MoveStage) message()        {}
func (UpdateStage) message()      {}
func (UpdateFinalStage) message() {}
func (Set) message()              {}

// Setting is a session setting value.
type Setting interface {
	setting()
}

type (
	// BPM sets tempo.
	BPM float64
	// Width sets horizontal resolution.
	Width int
	// Height sets vertical resolution.
	Height int
	// TargetFPS sets frame rate.
	TargetFPS float64
	// DynamicResolution allows resolution to follow the surface size.
	DynamicResolution bool
	// VSync toggles vertical sync of the surface.
	VSync bool
	// Fullscreen toggles fullscreen mode of the surface.
	Fullscreen bool
	// LockedSpeed toggles fixed per-frame time advancement.
	LockedSpeed bool
	// Screenshot toggles frame capture.
	Screenshot bool
)

func (BPM) setting()               {}
func (Width) setting()             {}
func (Height) setting()            {}
func (TargetFPS) setting()         {}
func (DynamicResolution) setting() {}
func (VSync) setting()             {}
func (Fullscreen) setting()        {}
func (LockedSpeed) setting()       {}
func (Screenshot) setting()        {}
