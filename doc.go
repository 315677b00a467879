/*
Package wvr drives a beat-synchronized compositing pipeline for live
visuals.

Concept

A session renders a chain of filter stages once per frame. Every stage
consumes named signals and produces a buffer:

    Inputs - video clips, pictures, cameras and MIDI controllers;
    Stages - filter passes, consuming inputs and outputs of other stages;
    Final stage - the last pass, its output is presented and captured.

Stages reference their sources by name, so the chain can be reordered
without rebinding. Stage variables are either raw values or automation
curves evaluated at the current time or beat.

Session

Session is built from configuration, a graph device and a filter catalog:

    cfg, err := config.Load("project/wvr.toml")
    s, err := wvr.New(cfg, device, catalog, wvr.WithSurface(window))

The host calls Frame on every redraw. Frame applies pending control
messages, advances the transport, renders the graph and presents the result:

    for {
        if _, err := s.Frame(); err != nil {
            break
        }
    }

Control

Any goroutine can mutate a running session by sending control messages:

    err := s.Send(control.UpdateStage{
        Index:  0,
        Update: graph.SetVariable{Name: "amount", Value: uniform.Float(0.5)},
    })

Messages are applied in arrival order at the beginning of the next frame.
Every message is applied independently: failed message is logged and
dropped, the rest of the batch is still applied.

Capture

When screenshots are enabled, every frame rendered while playing is
written asynchronously as a numbered image. Capture never blocks the render
loop: when the writer can't keep up, capture is disabled for the rest of
the session.
*/
package wvr
