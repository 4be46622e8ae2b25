// Package notify turns inbound push payloads into navigation calls, or holds
// one of them back until the app can navigate.
package notify

import (
	"fmt"
	"strconv"
)

// Action is a deep-link action carried by a push notification.
type Action string

// The closed set of actions the router accepts.
const (
	ActionGoHome        Action = "GO_HOME"
	ActionVisitorDetail Action = "Visitor_Detail"
	ActionVisitList     Action = "VISIT_LIST"
)

// Screen names a navigation destination.
type Screen string

const (
	ScreenHome         Screen = "home"
	ScreenVisitRequest Screen = "visit_request"
	ScreenVisitorPass  Screen = "visitor_pass"
)

// Route is a single navigation call.
type Route struct {
	Screen Screen
	// ID identifies the visit for ScreenVisitorPass.
	ID   string
	Data map[string]any
}

// Navigator is the navigation handle the router drives.
type Navigator interface {
	// Ready reports whether navigation calls are accepted yet.
	Ready() bool
	Navigate(r Route)
}

// Payload is a notification normalized to a known action and its data.
type Payload struct {
	Action Action
	Data   map[string]any
}

// Message is the push payload as delivered by the push collaborator.
type Message struct {
	Action       string         `json:"action,omitempty"`
	Notification *Notification  `json:"notification,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// Notification is the user-visible part of a push message.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// rawAction returns the top-level action, falling back to data.action.
func (m Message) rawAction() string {
	if m.Action != "" {
		return m.Action
	}
	if m.Data == nil {
		return ""
	}
	switch v := m.Data["action"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// dataString reads key from data as a string; numbers are formatted without exponent.
func dataString(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
