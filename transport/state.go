package transport

// State identifies one of the possible states transport can be in.
type State interface {
	transition(*Transport, event) (State, error)
	String() string
}

// states
type (
	ready   struct{}
	playing struct{}
	paused  struct{}
	stopped struct{}
)

// states variables
var (
	Ready   ready   // Ready means that transport was created and never played.
	Playing playing // Playing means that clock advances every frame.
	Paused  paused  // Paused means that clock is frozen and can be resumed.
	Stopped stopped // Stopped is terminal.
)

// event identifies the type of event.
type event int

// types of events.
const (
	play event = iota
	pause
	stop
)

func (e event) String() string {
	switch e {
	case play:
		return "play"
	case pause:
		return "pause"
	case stop:
		return "stop"
	}
	return "unknown"
}

func (ready) String() string   { return "ready" }
func (playing) String() string { return "playing" }
func (paused) String() string  { return "paused" }
func (stopped) String() string { return "stopped" }

func (s ready) transition(t *Transport, e event) (State, error) {
	switch e {
	case play:
		t.last = t.clock()
		return Playing, nil
	case stop:
		return terminate(t), nil
	}
	return s, ErrInvalidState
}

func (s playing) transition(t *Transport, e event) (State, error) {
	switch e {
	case pause:
		return Paused, nil
	case stop:
		return terminate(t), nil
	}
	return s, ErrInvalidState
}

func (s paused) transition(t *Transport, e event) (State, error) {
	switch e {
	case play:
		t.last = t.clock()
		return Playing, nil
	case stop:
		return terminate(t), nil
	}
	return s, ErrInvalidState
}

// stopped is terminal, every event is ignored.
func (s stopped) transition(t *Transport, e event) (State, error) {
	return s, ErrInvalidState
}

// terminate runs stop hooks. It's only reachable once, from non-terminal
// states.
func terminate(t *Transport) State {
	hooks := t.onStop
	t.onStop = nil
	for _, fn := range hooks {
		fn()
	}
	return Stopped
}
