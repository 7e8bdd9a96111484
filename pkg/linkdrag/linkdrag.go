// Package linkdrag implements the drag-to-link gesture state machine.
//
// A gesture starts on a source node (optionally on one of its ports), moves
// over candidate targets and ends either with a commit or a cancel:
//
//	Idle --Start--> Dragging(source, nil)
//	Dragging --Enter--> Dragging(source, candidate)   validity recomputed
//	Dragging --Leave--> Dragging(source, nil)
//	Dragging --End--> Idle                             OnLink fires if valid
//	Dragging --Cancel--> Idle
//
// Only one gesture can be active at a time. Starting another while one is
// active is ignored. In readonly mode every transition is a no-op.
//
// Controllers are not safe for concurrent use; the canvas serializes calls.
package linkdrag

import (
	"github.com/google/uuid"

	"github.com/matzehuels/linkcanvas/pkg/graph"
)

// Verdict is the answer of a CheckFunc.
type Verdict int

const (
	// Default defers to the built-in policy: any node other than the source is
	// a valid target.
	Default Verdict = iota
	// Allow accepts the candidate.
	Allow
	// Deny rejects the candidate.
	Deny
)

// CheckFunc decides whether a link from -> to (arriving on port, which may be
// nil) is allowed.
type CheckFunc func(from, to graph.Node, port *graph.Port) Verdict

// LinkFunc is invoked once per committed gesture.
type LinkFunc func(from, to graph.Node, port *graph.Port)

// Endpoint identifies a node and, optionally, one of its ports.
type Endpoint struct {
	Node graph.Node  `json:"node"`
	Port *graph.Port `json:"port,omitempty"`
}

// NodeID returns the endpoint's node identifier.
func (e Endpoint) NodeID() string { return e.Node.ID }

// PortID returns the endpoint's port identifier, or "" without a port.
func (e Endpoint) PortID() string {
	if e.Port == nil {
		return ""
	}
	return e.Port.ID
}

// State is the drag slice of the canvas state. The zero value is Idle.
type State struct {
	Active  bool        `json:"active"`
	ID      string      `json:"id,omitempty"`
	Source  *Endpoint   `json:"source,omitempty"`
	Target  *Endpoint   `json:"target,omitempty"`
	Valid   bool        `json:"valid"`
	Pointer graph.Point `json:"pointer"`
}

// Options configures a Controller.
type Options struct {
	Readonly bool
	Check    CheckFunc
	OnLink   LinkFunc
}

// Controller tracks at most one in-progress gesture.
type Controller struct {
	opts  Options
	state State
}

// New creates an idle controller.
func New(opts Options) *Controller {
	return &Controller{opts: opts}
}

// State returns a copy of the current gesture state.
func (c *Controller) State() State {
	s := c.state
	s.Source = cloneEndpoint(s.Source)
	s.Target = cloneEndpoint(s.Target)
	return s
}

// Dragging reports whether a gesture is active.
func (c *Controller) Dragging() bool { return c.state.Active }

// SetReadonly toggles readonly mode. Entering readonly cancels an active
// gesture.
func (c *Controller) SetReadonly(readonly bool) {
	c.opts.Readonly = readonly
	if readonly {
		c.state = State{}
	}
}

// SetCallbacks replaces the check and link callbacks.
func (c *Controller) SetCallbacks(check CheckFunc, onLink LinkFunc) {
	c.opts.Check = check
	c.opts.OnLink = onLink
}

// Start begins a gesture on from (and port, if non-nil). It returns false if
// the gesture was rejected because another one is active or the controller
// is readonly.
func (c *Controller) Start(from graph.Node, port *graph.Port) bool {
	if c.opts.Readonly || c.state.Active {
		return false
	}
	c.state = State{
		Active: true,
		ID:     uuid.NewString(),
		Source: &Endpoint{Node: from, Port: clonePort(port)},
	}
	return true
}

// Enter sets the candidate target and recomputes validity.
func (c *Controller) Enter(to graph.Node, port *graph.Port) {
	if c.opts.Readonly || !c.state.Active {
		return
	}
	target := &Endpoint{Node: to, Port: clonePort(port)}
	c.state.Target = target
	c.state.Valid = c.check(c.state.Source.Node, to, target.Port)
}

// Leave clears the candidate target.
func (c *Controller) Leave() {
	if c.opts.Readonly || !c.state.Active {
		return
	}
	c.state.Target = nil
	c.state.Valid = false
}

// Move records the drag pointer position in canvas coordinates.
func (c *Controller) Move(p graph.Point) {
	if c.opts.Readonly || !c.state.Active {
		return
	}
	c.state.Pointer = p
}

// End finishes the gesture. Over a valid candidate the state is cleared and
// OnLink is invoked once; otherwise the gesture is cancelled. It reports
// whether a link was committed.
func (c *Controller) End() bool {
	if c.opts.Readonly || !c.state.Active {
		return false
	}
	s := c.state
	c.state = State{}

	if s.Target == nil || !s.Valid {
		return false
	}
	if c.opts.OnLink != nil {
		c.opts.OnLink(s.Source.Node, s.Target.Node, s.Target.Port)
	}
	return true
}

// Cancel abandons the active gesture.
func (c *Controller) Cancel() {
	if c.opts.Readonly {
		return
	}
	c.state = State{}
}

func (c *Controller) check(from, to graph.Node, port *graph.Port) bool {
	if c.opts.Check != nil {
		switch c.opts.Check(from, to, port) {
		case Allow:
			return true
		case Deny:
			return false
		}
	}
	return from.ID != to.ID
}

func cloneEndpoint(e *Endpoint) *Endpoint {
	if e == nil {
		return nil
	}
	return &Endpoint{Node: e.Node, Port: clonePort(e.Port)}
}

func clonePort(p *graph.Port) *graph.Port {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
