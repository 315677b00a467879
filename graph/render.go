package graph

import (
	"github.com/sirupsen/logrus"

	"pipelined.dev/wvr/frame"
	"pipelined.dev/wvr/uniform"
)

// Sampler provides input values by name.
type Sampler interface {
	Sample(name string, time, beat float64) (uniform.Value, error)
}

// Context carries the clock values and view state for a render pass.
type Context struct {
	Time  float64
	Beat  float64
	Frame int64
	// Pointer is the pointer position in surface pixels.
	Pointer [2]float64
	Focused bool
	Inputs  Sampler
}

// Render executes the pass: interior stages in order, then the final stage.
// Returned buffer is the final stage output, it's valid until the next
// call. Errors are device failures and should be treated as fatal.
func (g *Graph) Render(ctx Context) (*frame.Buffer, error) {
	if g.resize != nil {
		g.width, g.height = g.resize[0], g.resize[1]
		g.resize = nil
		for _, s := range g.stages {
			s.resize(g.width, g.height)
		}
		g.final.resize(g.width, g.height)
	}
	for _, s := range g.stages {
		if err := g.renderStage(s, ctx); err != nil {
			return nil, err
		}
	}
	if err := g.renderStage(g.final, ctx); err != nil {
		return nil, err
	}
	return g.final.front, nil
}

func (g *Graph) renderStage(s *Stage, ctx Context) error {
	pass := Pass{
		Stage:      s.name,
		Target:     s.back,
		Precision:  s.precision,
		Time:       ctx.Time,
		Beat:       ctx.Beat,
		Frame:      ctx.Frame,
		Resolution: [2]int{g.width, g.height},
		Pointer:    ctx.Pointer,
		Focused:    ctx.Focused,
		Textures:   make(map[string]Texture, len(s.bindings)),
		Uniforms:   s.evaluate(ctx.Time, ctx.Beat),
	}
	for name, in := range s.bindings {
		if v, ok := g.resolve(s, name, in, ctx); ok {
			if t, ok := v.(uniform.Texture); ok {
				pass.Textures[name] = Texture{Buffer: t.Buffer, Mode: in.Mode}
			} else {
				pass.Uniforms[name] = v
			}
			continue
		}
		pass.Textures[name] = Texture{Mode: in.Mode}
	}
	if err := s.program.Render(&pass); err != nil {
		return &StageError{Stage: s.name, Op: "render", Err: err}
	}
	s.front, s.back = s.back, s.front
	return nil
}

// resolve returns bound value. Unresolved bindings are logged once until
// they resolve again.
func (g *Graph) resolve(s *Stage, name string, in SampledInput, ctx Context) (uniform.Value, bool) {
	var (
		v   uniform.Value
		err error
	)
	switch in.Kind {
	case FromStage:
		if i := g.Index(in.Name); i >= 0 {
			v = uniform.Texture{Buffer: g.stages[i].front}
		}
	default:
		if ctx.Inputs != nil {
			v, err = ctx.Inputs.Sample(in.Name, ctx.Time, ctx.Beat)
		}
	}
	if v != nil && err == nil {
		delete(s.missing, name)
		return v, true
	}
	if _, ok := s.missing[name]; !ok {
		s.missing[name] = struct{}{}
		entry := g.log.WithFields(logrus.Fields{
			"stage":   s.name,
			"binding": name,
			"source":  in.Name,
			"kind":    in.Kind,
		})
		if err != nil {
			entry.Warnf("binding unresolved, black is used: %v", err)
		} else {
			entry.Warn("binding unresolved, black is used")
		}
	}
	return nil, false
}
