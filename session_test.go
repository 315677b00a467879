package wvr_test

import (
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/wvr"
	"pipelined.dev/wvr/capture"
	"pipelined.dev/wvr/config"
	"pipelined.dev/wvr/control"
	"pipelined.dev/wvr/frame"
	"pipelined.dev/wvr/graph"
	"pipelined.dev/wvr/input"
	"pipelined.dev/wvr/internal/mock"
	"pipelined.dev/wvr/software"
	"pipelined.dev/wvr/transport"
	"pipelined.dev/wvr/uniform"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const chain = `
[view]
width = 4
height = 3
target_fps = 60.0
locked_speed = true

[[render_chain]]
name = "source"
filter = "solid"
[render_chain.variables.color]
value = [1.0, 0.0, 0.0, 1.0]

[[render_chain]]
name = "copy"
filter = "passthrough"
[render_chain.inputs.input]
stage = "source"

[[render_chain]]
name = "negative"
filter = "invert"
[render_chain.inputs.input]
stage = "copy"

[final_stage]
name = "out"
filter = "passthrough"
[final_stage.inputs.input]
stage = "negative"
`

var cyan = color.RGBA{G: 255, B: 255, A: 255}

type fixture struct {
	session *wvr.Session
	hook    *test.Hook
	clips   map[string]*mock.Clip
	cameras []*mock.Capture
}

func newFixture(t *testing.T, toml string, options ...wvr.Option) (*fixture, error) {
	t.Helper()
	cfg, err := config.Parse(strings.NewReader(toml))
	require.NoError(t, err)
	cfg.Path = t.TempDir()

	logger, hook := test.NewNullLogger()
	f := &fixture{
		hook:  hook,
		clips: make(map[string]*mock.Clip),
	}
	drivers := input.Drivers{
		OpenVideo: func(path string, _, _ int) (input.FrameSource, error) {
			clip := mock.NewClip(10, 10)
			f.clips[filepath.Base(path)] = clip
			return clip, nil
		},
		OpenCamera: func(string, int, int) (input.Capture, error) {
			c := mock.NewFeed[*frame.Buffer]()
			f.cameras = append(f.cameras, c)
			return c, nil
		},
	}
	catalog := software.NewCatalog()
	options = append([]wvr.Option{wvr.WithLogger(logger), wvr.WithDrivers(drivers)}, options...)
	f.session, err = wvr.New(cfg, software.NewDevice(catalog), catalog, options...)
	if err == nil {
		t.Cleanup(func() { f.session.Close() })
	}
	return f, err
}

func (f *fixture) send(t *testing.T, messages ...control.Message) {
	t.Helper()
	for _, m := range messages {
		require.NoError(t, f.session.Send(m))
	}
}

func (f *fixture) frames(t *testing.T, n int) *frame.Buffer {
	t.Helper()
	var (
		out *frame.Buffer
		err error
	)
	for i := 0; i < n; i++ {
		out, err = f.session.Frame()
		require.NoError(t, err)
	}
	return out
}

// problems returns warnings and errors.
func (f *fixture) problems() []*logrus.Entry {
	var result []*logrus.Entry
	for _, e := range f.hook.AllEntries() {
		if e.Level <= logrus.WarnLevel {
			result = append(result, e)
		}
	}
	return result
}

func names(g *graph.Graph) []string {
	var result []string
	for _, s := range g.Stages() {
		result = append(result, s.Name())
	}
	return result
}

func assertFill(t *testing.T, expected color.RGBA, b *frame.Buffer) {
	t.Helper()
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if !assert.Equal(t, expected, b.RGBAAt(x, y)) {
				return
			}
		}
	}
}

func TestInvalidMessageInBatch(t *testing.T) {
	f, err := newFixture(t, chain)
	require.NoError(t, err)
	assertFill(t, cyan, f.frames(t, 4))

	f.send(t,
		control.Start{},
		control.AddStage{Config: graph.StageConfig{Name: "extra", Filter: software.Solid}},
		control.RemoveStage{Index: 7},
		control.MoveStage{From: 0, To: 2},
		control.UpdateStage{Index: 3, Update: graph.SetVariable{Name: "color", Value: uniform.Vec4{0, 0, 1, 1}}},
		control.Set{Setting: control.BPM(90)},
	)
	f.frames(t, 1)

	g := f.session.Graph()
	assert.Equal(t, []string{"copy", "negative", "source", "extra"}, names(g))
	v, ok := g.Stages()[3].Variable("color")
	require.True(t, ok)
	assert.Equal(t, uniform.Vec4{0, 0, 1, 1}, v.Value)
	assert.Equal(t, 90.0, f.session.Transport().BPM())
	assert.Equal(t, transport.Playing, f.session.Transport().State())

	problems := f.problems()
	require.Len(t, problems, 1)
	assert.Equal(t, "control.RemoveStage", problems[0].Data["message"])
	assert.Equal(t, logrus.ErrorLevel, problems[0].Level)

	// no dangling references: output settles to the same picture
	assertFill(t, cyan, f.frames(t, 4))
	assert.Len(t, f.problems(), 1)
}

func TestRenameInput(t *testing.T) {
	f, err := newFixture(t, `
[view]
width = 2
height = 2
locked_speed = true

[inputs.cam0]
type = "video"
path = "clip"
beats = 1.0

[[render_chain]]
name = "show"
filter = "passthrough"
[render_chain.inputs.input]
input = "cam0"

[final_stage]
filter = "passthrough"
[final_stage.inputs.input]
stage = "show"
`)
	require.NoError(t, err)
	f.send(t, control.Start{})
	f.frames(t, 5)
	f.send(t, control.Pause{})
	f.frames(t, 1)

	before, ok := f.session.Inputs().Get("cam0")
	require.True(t, ok)
	position := before.(*input.Video).Position()
	assert.NotZero(t, position)

	f.send(t,
		control.RenameInput{From: "cam0", To: "camA"},
		control.UpdateStage{Index: 0, Update: graph.SetBinding{Name: "input", Input: graph.SampledInput{Kind: graph.FromInput, Name: "camA"}}},
	)
	f.frames(t, 1)

	after, ok := f.session.Inputs().Get("camA")
	require.True(t, ok)
	assert.Same(t, before, after)
	assert.Equal(t, "camA", after.Name())
	assert.Equal(t, position, after.(*input.Video).Position())
	assert.Empty(t, f.problems())

	// resumes from the same position
	f.send(t, control.Start{})
	f.frames(t, 5)
	assert.Greater(t, after.(*input.Video).Position(), position)
}

func TestStop(t *testing.T) {
	f, err := newFixture(t, chain+`
[inputs.clip]
type = "video"
path = "clip"

[inputs.cam]
type = "cam"
path = "/dev/video0"
`)
	require.NoError(t, err)
	f.send(t, control.Start{}, control.Stop{}, control.Stop{})
	_, err = f.session.Frame()
	assert.True(t, errors.Is(err, wvr.ErrStopped))
	assert.Equal(t, transport.Stopped, f.session.Transport().State())
	assert.Empty(t, f.problems())

	// inputs are released
	assert.True(t, f.clips["clip"].Closed)
	assert.False(t, f.cameras[0].Send(frame.New(1, 1)))
	assert.Empty(t, f.session.Inputs().Names())

	f.session.Stop()
	f.send(t, control.Start{})
	_, err = f.session.Frame()
	assert.True(t, errors.Is(err, wvr.ErrStopped))
	assert.NoError(t, f.session.Close())
	assert.NoError(t, f.session.Close())
}

func TestCapture(t *testing.T) {
	dir := t.TempDir()
	f, err := newFixture(t, strings.Replace(chain, "locked_speed = true", `locked_speed = true
screenshot = true
screenshot_path = "`+dir+`"`, 1))
	require.NoError(t, err)
	assert.True(t, f.session.Capturing())

	// not captured until started
	f.frames(t, 2)
	f.send(t, control.Start{})
	f.frames(t, 3)
	f.send(t, control.Pause{})
	f.frames(t, 2)
	require.NoError(t, f.session.Close())

	files, err := filepath.Glob(filepath.Join(dir, "*.bmp"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, capture.FileName(0)),
		filepath.Join(dir, capture.FileName(1)),
		filepath.Join(dir, capture.FileName(2)),
	}, files)
	assert.Empty(t, f.problems())
}

func TestScreenshotToggle(t *testing.T) {
	dir := t.TempDir()
	w := &mock.Writer{}
	f, err := newFixture(t, strings.Replace(chain, "locked_speed = true", `locked_speed = true
screenshot_path = "`+dir+`"`, 1), wvr.WithCaptureOptions(capture.WithWriter(w)))
	require.NoError(t, err)
	assert.False(t, f.session.Capturing())

	f.send(t, control.Start{}, control.Set{Setting: control.Screenshot(true)})
	f.frames(t, 2)
	f.send(t, control.Set{Setting: control.Screenshot(false)})
	f.frames(t, 2)
	assert.False(t, f.session.Capturing())
	f.send(t, control.Set{Setting: control.Screenshot(true)})
	f.frames(t, 1)
	assert.True(t, f.session.Capturing())
	require.NoError(t, f.session.Close())

	assert.Equal(t, []int64{0, 1, 4}, w.Written())
	assert.Empty(t, f.problems())
}

func TestScreenshotToggleStalledWriter(t *testing.T) {
	dir := t.TempDir()
	w := &mock.Writer{Stall: make(chan struct{})}
	f, err := newFixture(t, strings.Replace(chain, "locked_speed = true", `locked_speed = true
screenshot_path = "`+dir+`"`, 1), wvr.WithCaptureOptions(capture.WithWriter(w)))
	require.NoError(t, err)

	f.send(t, control.Start{}, control.Set{Setting: control.Screenshot(true)})
	f.frames(t, 2)
	f.send(t,
		control.Set{Setting: control.Screenshot(false)},
		control.Set{Setting: control.Screenshot(true)},
	)

	// render loop must not wait for the stalled worker
	done := make(chan error, 1)
	go func() {
		_, err := f.session.Frame()
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(w.Stall)
		<-done
		t.Fatal("frame blocked by capture worker")
	}
	assert.True(t, f.session.Capturing())

	close(w.Stall)
	require.NoError(t, f.session.Close())
	assert.Equal(t, []int64{0, 1, 2}, w.Written())
	assert.Empty(t, f.problems())
}

func TestSettings(t *testing.T) {
	surface := &mock.Surface{}
	f, err := newFixture(t, strings.Replace(chain, "locked_speed = true", "vsync = true", 1), wvr.WithSurface(surface))
	require.NoError(t, err)
	assert.True(t, surface.VSync)
	assert.False(t, surface.Fullscreen)

	f.send(t,
		control.Set{Setting: control.Width(8)},
		control.Set{Setting: control.Height(6)},
		control.Set{Setting: control.VSync(false)},
		control.Set{Setting: control.Fullscreen(true)},
		control.Set{Setting: control.LockedSpeed(true)},
		control.Set{Setting: control.TargetFPS(30)},
		control.Set{Setting: control.BPM(0)},
	)
	out := f.frames(t, 1)
	assert.Equal(t, [2]int{8, 6}, [2]int{out.Width, out.Height})
	assert.Equal(t, 1, surface.Calls())
	assert.Equal(t, out.Pix, surface.Last.Pix)
	assert.False(t, surface.VSync)
	assert.True(t, surface.Fullscreen)
	assert.True(t, f.session.Transport().LockedSpeed())
	assert.Equal(t, 30.0, f.session.Transport().TargetFPS())
	require.Len(t, f.problems(), 1)
	assert.Equal(t, "control.Set", f.problems()[0].Data["message"])

	// resolution follows the surface only when dynamic
	require.NoError(t, f.session.Resize(16, 12))
	out = f.frames(t, 1)
	assert.Equal(t, 8, out.Width)
	f.send(t, control.Set{Setting: control.DynamicResolution(true)})
	f.frames(t, 1)
	require.NoError(t, f.session.Resize(16, 12))
	out = f.frames(t, 1)
	assert.Equal(t, [2]int{16, 12}, [2]int{out.Width, out.Height})
	assert.Equal(t, 16, f.session.View().Width)

	surface.ErrorOnCall = errors.New("surface lost")
	_, err = f.session.Frame()
	assert.True(t, errors.Is(err, surface.ErrorOnCall))
}

func TestNew(t *testing.T) {
	_, err := newFixture(t, `
[final_stage]
filter = "hologram"
`)
	assert.True(t, errors.Is(err, software.ErrUnknownFilter))

	// camera opened before the failure is released
	f, err := newFixture(t, `
[inputs.a]
type = "cam"
path = "/dev/video0"

[inputs.b]
type = "picture"
path = "missing.png"

[final_stage]
filter = "solid"
`)
	assert.Error(t, err)
	require.Len(t, f.cameras, 1)
	assert.False(t, f.cameras[0].Send(frame.New(1, 1)))
}

func TestPointerAndFocus(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(`
[view]
width = 2
height = 2
locked_speed = true

[final_stage]
filter = "pointer"
`))
	require.NoError(t, err)
	cfg.Path = t.TempDir()

	catalog := software.NewCatalog()
	catalog.Register("pointer", func(p *graph.Pass) error {
		c := color.RGBA{R: uint8(p.Pointer[0]), G: uint8(p.Pointer[1]), A: 255}
		if p.Focused {
			c.B = 255
		}
		p.Target.Fill(c)
		return nil
	})
	logger, _ := test.NewNullLogger()
	s, err := wvr.New(cfg, software.NewDevice(catalog), catalog, wvr.WithLogger(logger))
	require.NoError(t, err)
	defer s.Close()

	out, err := s.Frame()
	require.NoError(t, err)
	assertFill(t, color.RGBA{A: 255}, out)

	s.SetPointer(3, 7)
	s.SetFocused(true)
	out, err = s.Frame()
	require.NoError(t, err)
	assertFill(t, color.RGBA{R: 3, G: 7, B: 255, A: 255}, out)

	s.SetFocused(false)
	out, err = s.Frame()
	require.NoError(t, err)
	assertFill(t, color.RGBA{R: 3, G: 7, A: 255}, out)
}
