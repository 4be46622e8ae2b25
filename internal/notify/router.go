package notify

import (
	"io"
	"log/slog"
	"sort"
)

// Outcome is what Handle did with a message.
type Outcome int

const (
	// Rejected means the action was missing or unknown; nothing happened.
	Rejected Outcome = iota
	// Deferred means the payload was written to the pending buffer.
	Deferred
	// Dispatched means exactly one navigation call was made.
	Dispatched
)

func (o Outcome) String() string {
	switch o {
	case Deferred:
		return "deferred"
	case Dispatched:
		return "dispatched"
	default:
		return "rejected"
	}
}

type handler func(data map[string]any, nav Navigator)

// Router validates notification actions and dispatches them to navigation.
type Router struct {
	handlers map[Action]handler
	pending  *Buffer
	logger   *slog.Logger
}

// NewRouter creates a router that defers into pending. logger may be nil.
func NewRouter(pending *Buffer, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Router{
		pending: pending,
		logger:  logger,
		handlers: map[Action]handler{
			ActionGoHome: func(data map[string]any, nav Navigator) {
				nav.Navigate(Route{Screen: ScreenVisitRequest, Data: data})
			},
			ActionVisitorDetail: func(data map[string]any, nav Navigator) {
				nav.Navigate(Route{Screen: ScreenVisitorPass, ID: dataString(data, "id"), Data: data})
			},
			ActionVisitList: func(data map[string]any, nav Navigator) {
				nav.Navigate(Route{Screen: ScreenHome, Data: data})
			},
		},
	}
}

// Pending returns the buffer the router defers into.
func (r *Router) Pending() *Buffer {
	return r.pending
}

// Actions lists the accepted actions in sorted order.
func (r *Router) Actions() []Action {
	out := make([]Action, 0, len(r.handlers))
	for a := range r.handlers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve normalizes m to a payload. It returns false when the action is
// missing or not one of the known actions.
func (r *Router) Resolve(m Message) (Payload, bool) {
	a := Action(m.rawAction())
	if _, ok := r.handlers[a]; !ok {
		return Payload{}, false
	}
	data := m.Data
	if data == nil {
		data = map[string]any{}
	}
	return Payload{Action: a, Data: data}, true
}

// Handle dispatches m to navigation when the user is authenticated and nav is
// ready. Otherwise a valid payload is buffered for later. Invalid actions are
// logged and dropped without touching the buffer.
func (r *Router) Handle(m Message, nav Navigator, authenticated bool) Outcome {
	p, ok := r.Resolve(m)
	if !ok {
		r.logger.Warn("invalid notification action", "action", m.rawAction())
		return Rejected
	}
	if !authenticated || nav == nil || !nav.Ready() {
		r.pending.Set(p)
		r.logger.Info("notification deferred", "action", string(p.Action), "authenticated", authenticated)
		return Deferred
	}
	r.handlers[p.Action](p.Data, nav)
	r.logger.Info("notification dispatched", "action", string(p.Action))
	return Dispatched
}

// Dispatch replays a buffered payload as an authenticated notification.
func (r *Router) Dispatch(p Payload, nav Navigator) Outcome {
	return r.Handle(Message{Action: string(p.Action), Data: p.Data}, nav, true)
}
