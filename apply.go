package wvr

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"pipelined.dev/wvr/control"
	"pipelined.dev/wvr/transport"
)

// handle applies message and logs the failure. One failed message never
// affects the others.
func (s *Session) handle(m control.Message) {
	l := s.log.WithField("message", fmt.Sprintf("%T", m))
	if isDebug(s.log) {
		l.Debugf("apply %s", spew.Sdump(m))
	}
	err := s.apply(m)
	s.meter.Message(err)
	if err != nil {
		l.Errorf("message dropped: %v", err)
	}
}

func isDebug(l interface{}) bool {
	switch v := l.(type) {
	case *logrus.Logger:
		return v.IsLevelEnabled(logrus.DebugLevel)
	case *logrus.Entry:
		return v.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return false
}

func (s *Session) apply(m control.Message) error {
	if s.stopped() {
		if _, ok := m.(control.Stop); ok {
			return nil
		}
		return ErrStopped
	}
	switch m := m.(type) {
	case control.Start:
		if err := ignoreState(s.transport.Play()); err != nil {
			return err
		}
		s.inputs.PlayAll()
	case control.Pause:
		if err := ignoreState(s.transport.Pause()); err != nil {
			return err
		}
		s.inputs.PauseAll()
	case control.Stop:
		return ignoreState(s.transport.Stop())
	case control.InsertInput:
		return s.inputs.Insert(m.Name, m.Config)
	case control.AddInput:
		return s.inputs.Add(m.Name, m.Config)
	case control.RenameInput:
		return s.inputs.Rename(m.From, m.To)
	case control.RemoveInput:
		return s.inputs.Remove(m.Name)
	case control.UpdateInput:
		return s.inputs.Update(m.Name, m.Key, m.Value)
	case control.AddStage:
		return s.graph.AddStage(m.Config)
	case control.RemoveStage:
		return s.graph.RemoveStage(m.Index)
	case control.MoveStage:
		return s.graph.MoveStage(m.From, m.To)
	case control.UpdateStage:
		if m.Update == nil {
			return errors.New("empty stage update")
		}
		return s.graph.UpdateStage(m.Index, m.Update)
	case control.UpdateFinalStage:
		if m.Update == nil {
			return errors.New("empty stage update")
		}
		return s.graph.UpdateFinal(m.Update)
	case control.Set:
		return s.set(m.Setting)
	default:
		return fmt.Errorf("unsupported message %T", m)
	}
	return nil
}

// ignoreState treats transport transitions which have no effect as
// success.
func ignoreState(err error) error {
	if errors.Is(err, transport.ErrInvalidState) {
		return nil
	}
	return err
}

func (s *Session) set(setting control.Setting) error {
	switch v := setting.(type) {
	case control.BPM:
		return s.transport.SetBPM(float64(v))
	case control.TargetFPS:
		return s.transport.SetTargetFPS(float64(v))
	case control.Width:
		if err := s.graph.Resize(int(v), s.view.Height); err != nil {
			return err
		}
		s.view.Width = int(v)
	case control.Height:
		if err := s.graph.Resize(s.view.Width, int(v)); err != nil {
			return err
		}
		s.view.Height = int(v)
	case control.DynamicResolution:
		s.view.Dynamic = bool(v)
	case control.VSync:
		if s.surface != nil {
			if err := s.surface.SetVSync(bool(v)); err != nil {
				return err
			}
		}
		s.view.VSync = bool(v)
	case control.Fullscreen:
		if s.surface != nil {
			if err := s.surface.SetFullscreen(bool(v)); err != nil {
				return err
			}
		}
		s.view.Fullscreen = bool(v)
	case control.LockedSpeed:
		s.transport.SetLockedSpeed(bool(v))
		s.inputs.SetLocked(bool(v))
		s.view.LockedSpeed = bool(v)
	case control.Screenshot:
		return s.setScreenshot(bool(v))
	default:
		return fmt.Errorf("unsupported setting %T", setting)
	}
	return nil
}

// setScreenshot toggles capture. Disabled capture only stops pushing
// frames, the sink stays open so the render loop never joins the worker.
// Capture disabled by saturation can't be enabled again.
func (s *Session) setScreenshot(enabled bool) error {
	if enabled && s.captureFailed {
		return errors.New("capture was disabled after failure")
	}
	if enabled && s.sink == nil {
		if err := s.openSink(); err != nil {
			return err
		}
	}
	s.view.Screenshot = enabled
	return nil
}
