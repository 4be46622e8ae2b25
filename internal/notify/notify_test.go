package notify

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeNav records navigation calls.
type fakeNav struct {
	ready  bool
	routes []Route
}

func (n *fakeNav) Ready() bool      { return n.ready }
func (n *fakeNav) Navigate(r Route) { n.routes = append(n.routes, r) }

func TestBufferLastWriteWins(t *testing.T) {
	b := NewBuffer()
	b.Set(Payload{Action: ActionGoHome})
	b.Set(Payload{Action: ActionVisitorDetail, Data: map[string]any{"id": "42"}})

	got, ok := b.Consume()
	if !ok {
		t.Fatal("Consume() ok = false, want true")
	}
	want := Payload{Action: ActionVisitorDetail, Data: map[string]any{"id": "42"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Consume() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := b.Consume(); ok {
		t.Error("second Consume() ok = true, want false")
	}
}

func TestBufferConsumeOnce(t *testing.T) {
	b := NewBuffer()
	b.Set(Payload{Action: ActionVisitorDetail, Data: map[string]any{"id": "42"}})

	if p, ok := b.Peek(); !ok || p.Action != ActionVisitorDetail {
		t.Fatalf("Peek() = %+v, %v", p, ok)
	}
	p, ok := b.Consume()
	if !ok || p.Data["id"] != "42" {
		t.Fatalf("Consume() = %+v, %v", p, ok)
	}
	if _, ok := b.Consume(); ok {
		t.Error("Consume() after consume returned a payload")
	}
	if _, ok := b.Peek(); ok {
		t.Error("Peek() after consume returned a payload")
	}
}

func TestHandleRejectsUnknownActions(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"missing", Message{}},
		{"unknown top level", Message{Action: "DELETE_ALL"}},
		{"unknown nested", Message{Data: map[string]any{"action": "visitor_detail"}}},
		{"non-string nested", Message{Data: map[string]any{"action": 12}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer()
			r := NewRouter(buf, nil)
			nav := &fakeNav{ready: true}

			for _, authed := range []bool{true, false} {
				if got := r.Handle(tt.msg, nav, authed); got != Rejected {
					t.Errorf("Handle(authenticated=%v) = %v, want rejected", authed, got)
				}
			}
			if len(nav.routes) != 0 {
				t.Errorf("navigation calls = %d, want 0", len(nav.routes))
			}
			if _, ok := buf.Peek(); ok {
				t.Error("buffer was mutated for an invalid action")
			}
		})
	}
}

func TestHandleRejectDoesNotClobberPending(t *testing.T) {
	buf := NewBuffer()
	r := NewRouter(buf, nil)
	buf.Set(Payload{Action: ActionGoHome, Data: map[string]any{}})

	r.Handle(Message{Action: "BOGUS"}, &fakeNav{}, false)

	p, ok := buf.Consume()
	if !ok || p.Action != ActionGoHome {
		t.Errorf("pending = %+v, %v; want GO_HOME kept", p, ok)
	}
}

func TestHandleDefersWhenNotReady(t *testing.T) {
	tests := []struct {
		name   string
		authed bool
		ready  bool
	}{
		{"unauthenticated", false, true},
		{"navigation not ready", true, false},
		{"neither", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer()
			r := NewRouter(buf, nil)
			nav := &fakeNav{ready: tt.ready}
			msg := Message{Action: "Visitor_Detail", Data: map[string]any{"id": "9"}}

			if got := r.Handle(msg, nav, tt.authed); got != Deferred {
				t.Fatalf("Handle() = %v, want deferred", got)
			}
			if len(nav.routes) != 0 {
				t.Errorf("navigation calls = %d, want 0", len(nav.routes))
			}
			got, ok := buf.Consume()
			want := Payload{Action: ActionVisitorDetail, Data: map[string]any{"id": "9"}}
			if !ok {
				t.Fatal("nothing buffered")
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("buffered payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleDispatchesWhenReady(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want Route
	}{
		{
			name: "nested visitor detail",
			msg:  Message{Data: map[string]any{"action": "Visitor_Detail", "id": "7"}},
			want: Route{Screen: ScreenVisitorPass, ID: "7", Data: map[string]any{"action": "Visitor_Detail", "id": "7"}},
		},
		{
			name: "numeric id",
			msg:  Message{Action: "Visitor_Detail", Data: map[string]any{"id": float64(15)}},
			want: Route{Screen: ScreenVisitorPass, ID: "15", Data: map[string]any{"id": float64(15)}},
		},
		{
			name: "go home opens the request form",
			msg:  Message{Action: "GO_HOME"},
			want: Route{Screen: ScreenVisitRequest, Data: map[string]any{}},
		},
		{
			name: "visit list",
			msg:  Message{Action: "VISIT_LIST", Data: map[string]any{"k": "v"}},
			want: Route{Screen: ScreenHome, Data: map[string]any{"k": "v"}},
		},
		{
			name: "top level preferred over nested",
			msg:  Message{Action: "VISIT_LIST", Data: map[string]any{"action": "Visitor_Detail"}},
			want: Route{Screen: ScreenHome, Data: map[string]any{"action": "Visitor_Detail"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer()
			r := NewRouter(buf, nil)
			nav := &fakeNav{ready: true}

			if got := r.Handle(tt.msg, nav, true); got != Dispatched {
				t.Fatalf("Handle() = %v, want dispatched", got)
			}
			if diff := cmp.Diff([]Route{tt.want}, nav.routes); diff != "" {
				t.Errorf("routes mismatch (-want +got):\n%s", diff)
			}
			if _, ok := buf.Peek(); ok {
				t.Error("buffer written on dispatch")
			}
		})
	}
}

func TestDispatchReplaysPayload(t *testing.T) {
	buf := NewBuffer()
	r := NewRouter(buf, nil)
	unready := &fakeNav{}

	r.Handle(Message{Action: "Visitor_Detail", Data: map[string]any{"id": "42"}}, unready, false)
	p, ok := buf.Consume()
	if !ok {
		t.Fatal("nothing buffered")
	}

	nav := &fakeNav{ready: true}
	if got := r.Dispatch(p, nav); got != Dispatched {
		t.Fatalf("Dispatch() = %v, want dispatched", got)
	}
	if len(nav.routes) != 1 || nav.routes[0].ID != "42" {
		t.Errorf("routes = %+v", nav.routes)
	}
}

func TestActions(t *testing.T) {
	r := NewRouter(NewBuffer(), nil)
	want := []Action{ActionGoHome, ActionVisitList, ActionVisitorDetail}
	if diff := cmp.Diff(want, r.Actions()); diff != "" {
		t.Errorf("Actions() mismatch (-want +got):\n%s", diff)
	}
}
