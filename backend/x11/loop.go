package x11

import (
	"fmt"
	"io"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/npillmayer/xshape/backend/xrender"
	"github.com/npillmayer/xshape/core"
)

// State is a state of the display loop.
type State int8

// States of the display loop.
const (
	Created State = iota
	Mapped
	WaitingForEvent
	Exposed
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Mapped:
		return "Mapped"
	case WaitingForEvent:
		return "WaitingForEvent"
	case Exposed:
		return "Exposed"
	case Closed:
		return "Closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// EventKind classifies what the event source delivered.
type EventKind int8

// Kinds of events the display loop reacts to.
const (
	Expose EventKind = iota
	KeyPress
	ServerError
	ConnectionClosed
	Other
	mapped // internal: map request succeeded
	drawn  // internal: redraw done
)

func (k EventKind) String() string {
	switch k {
	case Expose:
		return "Expose"
	case KeyPress:
		return "KeyPress"
	case ServerError:
		return "ServerError"
	case ConnectionClosed:
		return "ConnectionClosed"
	case Other:
		return "Other"
	case mapped:
		return "mapped"
	case drawn:
		return "drawn"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

type transition struct {
	from State
	on   EventKind
}

// transitions is the complete table of the display loop. A pair missing
// from the table is a programming error.
var transitions = map[transition]State{
	{Created, mapped}:                   Mapped,
	{Created, ServerError}:              Closed,
	{Created, ConnectionClosed}:         Closed,
	{Mapped, Expose}:                    Exposed,
	{Mapped, KeyPress}:                  Closed,
	{Mapped, ServerError}:               WaitingForEvent,
	{Mapped, ConnectionClosed}:          Closed,
	{Mapped, Other}:                     WaitingForEvent,
	{WaitingForEvent, Expose}:           Exposed,
	{WaitingForEvent, KeyPress}:         Closed,
	{WaitingForEvent, ServerError}:      WaitingForEvent,
	{WaitingForEvent, ConnectionClosed}: Closed,
	{WaitingForEvent, Other}:            WaitingForEvent,
	{Exposed, drawn}:                    WaitingForEvent,
	{Exposed, ServerError}:              WaitingForEvent,
	{Exposed, ConnectionClosed}:         Closed,
}

// Next returns the successor of state s for an event of kind k. It returns
// false if the table has no entry for (s, k).
func Next(s State, k EventKind) (State, bool) {
	next, ok := transitions[transition{s, k}]
	return next, ok
}

// EventSource delivers events and errors from a display server.
// *xgb.Conn is an EventSource. If both return values are nil, the
// connection has been closed.
type EventSource interface {
	WaitForEvent() (xgb.Event, xgb.Error)
}

// Classify determines the kind of an event. Only the last of a series of
// expose events (the one with a count of 0) is classified as Expose.
func Classify(ev xgb.Event, err xgb.Error) EventKind {
	if ev == nil && err == nil {
		return ConnectionClosed
	}
	if err != nil {
		return ServerError
	}
	switch e := ev.(type) {
	case xproto.ExposeEvent:
		if e.Count == 0 {
			return Expose
		}
	case xproto.KeyPressEvent:
		return KeyPress
	}
	return Other
}

// Loop drives a mapped window until a key is pressed or the connection is
// closed. Map and Redraw are called from within Run, Teardown is called
// exactly once when Run leaves.
type Loop struct {
	Events   EventSource
	Map      func() error
	Redraw   func() error
	Teardown func() error
	state    State
	once     sync.Once
}

// State returns the current state of the loop.
func (l *Loop) State() State {
	return l.state
}

func (l *Loop) step(k EventKind) {
	next, ok := Next(l.state, k)
	if !ok {
		panic(fmt.Sprintf("display loop: no transition from %s on %s", l.state, k))
	}
	tracer().Debugf("display loop: %s --%s--> %s", l.state, k, next)
	l.state = next
}

// Run maps the window and processes events until a key is pressed or the
// connection is closed. Every expose event with a count of 0 triggers a
// redraw.
//
// Server errors are traced and do not end the loop, neither do redraws
// failing with a protocol error. Run returns an error if mapping fails, if
// a redraw fails for other reasons, or if teardown fails. Running a closed
// loop does nothing.
func (l *Loop) Run() (err error) {
	if l.state == Closed {
		return nil
	}
	defer func() {
		if terr := l.teardown(); err == nil {
			err = terr
		}
	}()
	if l.Map != nil {
		if err = l.Map(); err != nil {
			l.step(failure(err))
			return err
		}
	}
	l.step(mapped)
	for l.state != Closed {
		ev, xerr := l.Events.WaitForEvent()
		k := Classify(ev, xerr)
		switch k {
		case ServerError:
			protocolError("event", xerr) // traces the error
		case ConnectionClosed:
			tracer().Infof("connection to display server closed")
		}
		l.step(k)
		if l.state != Exposed {
			continue
		}
		if l.Redraw == nil {
			l.step(drawn)
		} else if rerr := l.Redraw(); rerr == nil {
			l.step(drawn)
		} else {
			tracer().Errorf("redraw failed: %v", rerr)
			l.step(failure(rerr))
			if l.state == Closed {
				return rerr
			}
		}
	}
	return nil
}

// failure classifies an error returned from a request: protocol errors and
// glyphs missing from a glyph set are server errors, anything else means
// the connection is unusable.
func failure(err error) EventKind {
	if _, ok := xrender.AsProtocolError(err); ok {
		return ServerError
	}
	if core.Code(err) == core.EMISSING {
		return ServerError
	}
	return ConnectionClosed
}

func (l *Loop) teardown() (err error) {
	l.once.Do(func() {
		l.state = Closed
		if l.Teardown != nil {
			err = l.Teardown()
		}
	})
	return
}

// --- Resources -------------------------------------------------------------

// Resources collects server-side and local resources to be released at the
// end of a program run.
type Resources struct {
	mu       sync.Mutex
	entries  []resource
	released bool
}

type resource struct {
	name    string
	release func() error
}

// Add registers a release function. Resources are released in the order
// they have been added.
func (r *Resources) Add(name string, release func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, resource{name: name, release: release})
}

// AddCloser registers an io.Closer.
func (r *Resources) AddCloser(name string, c io.Closer) {
	r.Add(name, c.Close)
}

// Release releases all registered resources exactly once, even if releasing
// one of them fails. It returns the first error encountered.
func (r *Resources) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil
	}
	r.released = true
	var first error
	for _, res := range r.entries {
		tracer().Debugf("releasing %s", res.name)
		if err := res.release(); err != nil {
			tracer().Errorf("cannot release %s: %v", res.name, err)
			if first == nil {
				first = core.WrapError(err, core.Code(err), "releasing %s", res.name)
			}
		}
	}
	r.entries = nil
	return first
}
