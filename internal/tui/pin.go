package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/gatepass/internal/keystore"
)

type pinReply struct {
	pin string
	err error
}

type pinRequest struct {
	prompt keystore.Prompt
	reply  chan pinReply
}

// pinRequestMsg asks the App to show the PIN overlay.
type pinRequestMsg pinRequest

// PinPrompter serves keystore PIN prompts through the TUI overlay. It is
// safe to call from any goroutine while the program runs.
type PinPrompter struct {
	requests chan pinRequest
}

// NewPinPrompter returns a prompter whose requests are shown by an App
// built with it.
func NewPinPrompter() *PinPrompter {
	return &PinPrompter{requests: make(chan pinRequest)}
}

// PIN blocks until the user answers the overlay or ctx is done.
func (p *PinPrompter) PIN(ctx context.Context, pr keystore.Prompt) (string, error) {
	req := pinRequest{prompt: pr, reply: make(chan pinReply, 1)}
	select {
	case p.requests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case r := <-req.reply:
		return r.pin, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *PinPrompter) wait() tea.Cmd {
	if p == nil {
		return nil
	}
	ch := p.requests
	return func() tea.Msg {
		return pinRequestMsg(<-ch)
	}
}

const maxPINLen = 12

// pinModel is the masked PIN entry overlay.
type pinModel struct {
	req   pinRequest
	input string
	done  bool
}

func newPinModel(req pinRequest) pinModel {
	return pinModel{req: req}
}

func (m pinModel) Update(msg tea.KeyMsg) pinModel {
	switch msg.String() {
	case "esc":
		m.req.reply <- pinReply{err: keystore.ErrCanceled}
		m.done = true
	case "enter":
		if m.input == "" {
			return m
		}
		m.req.reply <- pinReply{pin: m.input}
		m.done = true
	case "backspace":
		m.input = editRune(m.input, "backspace", maxPINLen)
	default:
		k := msg.String()
		if len(k) == 1 && k[0] >= '0' && k[0] <= '9' {
			m.input = editRune(m.input, k, maxPINLen)
		}
	}
	return m
}

func (m pinModel) View() string {
	var b strings.Builder
	title := "Unlock"
	if m.req.prompt.Purpose == keystore.PurposeCreate {
		title = "Set a quick-login PIN"
	}
	fmt.Fprintf(&b, "\n  %s\n\n", titleStyle.Render(title))
	if m.req.prompt.Reason != "" {
		reason := dimStyle
		if m.req.prompt.Attempt > 1 {
			reason = errorStyle
		}
		fmt.Fprintf(&b, "  %s\n\n", reason.Render(m.req.prompt.Reason))
	}
	fmt.Fprintf(&b, "  %s %s%s\n", labelStyle.Render("PIN"), strings.Repeat("•", len(m.input)), accentStyle.Render("█"))
	return b.String()
}
