package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/naveenspark/gatepass/internal/browser"
	"github.com/naveenspark/gatepass/pkg/client"
	"github.com/naveenspark/gatepass/pkg/domain"
)

type visitLoadedMsg struct {
	visit *domain.Visit
	err   error
}

// passModel shows one visit. The QR code is rendered only for approved visits.
type passModel struct {
	visits  Visits
	id      string
	visit   *domain.Visit
	qr      string
	loading bool
	err     string
	status  string
}

func newPassModel(v Visits, id string) passModel {
	return passModel{visits: v, id: id, loading: true}
}

func (m passModel) Init() tea.Cmd {
	v, id := m.visits, m.id
	if v == nil {
		return nil
	}
	return func() tea.Msg {
		visit, err := v.GetVisit(context.Background(), id)
		return visitLoadedMsg{visit: visit, err: err}
	}
}

// renderQR draws content as a terminal QR code using half-block characters.
func renderQR(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return q.ToSmallString(false), nil
}

func (m passModel) Update(msg tea.Msg) (passModel, tea.Cmd) {
	switch msg := msg.(type) {
	case visitLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = client.Normalize(msg.err).Message
			return m, nil
		}
		m.visit = msg.visit
		m.qr = ""
		if m.visit.Approved() && m.visit.Code != "" {
			if qr, err := renderQR(m.visit.Code); err == nil {
				m.qr = qr
			}
		}
		return m, nil

	case tea.KeyMsg:
		m.status = ""
		switch msg.String() {
		case "esc", "backspace":
			return m, func() tea.Msg { return showHomeMsg{} }
		case "r":
			m.loading = true
			return m, m.Init()
		case "c":
			if m.visit == nil || m.visit.Code == "" {
				return m, nil
			}
			if err := clipboard.WriteAll(m.visit.Code); err != nil {
				m.status = "copy failed: " + err.Error()
			} else {
				m.status = "visit code copied"
			}
		case "s":
			if !m.visit.Approved() {
				m.status = "only approved passes can be shared"
				return m, nil
			}
			if err := browser.Open(browser.ShareURL(m.visit.ShareMessage())); err != nil {
				m.status = "share failed: " + err.Error()
			} else {
				m.status = "opened share link"
			}
		}
	}
	return m, nil
}

func (m passModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", titleStyle.Render("Visitor pass"))
	switch {
	case m.loading:
		b.WriteString("  " + dimStyle.Render("loading pass..."))
		return b.String()
	case m.err != "":
		b.WriteString("  " + errorStyle.Render("error: "+m.err))
		return b.String()
	case m.visit == nil:
		return b.String()
	}
	v := m.visit

	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "  %s  %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label)), normalStyle.Render(value))
	}
	fmt.Fprintf(&b, "  %s  %s\n", labelStyle.Render(fmt.Sprintf("%-12s", "Status")), statusStyle(v.Status).Render(v.Status.Name))
	row("Code", v.Code)
	if p := v.Primary(); p != nil {
		row("Visitor", p.FullName)
		row("CNIC", p.CNIC)
		row("Phone", p.MobileNo)
	}
	for _, c := range v.Companions() {
		row("Companion", c.FullName)
	}
	for _, veh := range v.Vehicles {
		row("Vehicle", strings.TrimSpace(veh.RegistrationNo+" "+veh.Make+" "+veh.Model+" "+veh.Color))
	}
	if v.Checkpost != nil {
		row("Gate", v.Checkpost.Name)
	}
	row("From", formatVisitTime(v.From))
	row("Until", formatVisitTime(v.To))
	row("Purpose", v.Purpose)
	row("Destination", v.Destination)

	b.WriteString("\n")
	if m.qr != "" {
		for _, line := range strings.Split(strings.TrimRight(m.qr, "\n"), "\n") {
			b.WriteString("  " + line + "\n")
		}
	} else {
		b.WriteString("  " + dimStyle.Render("The QR code appears once the visit is approved.") + "\n")
	}
	if m.status != "" {
		b.WriteString("\n  " + noticeStyle.Render(m.status))
	}
	return b.String()
}

func (m passModel) helpKeys() string {
	return helpBar("c", "copy code", "s", "share", "r", "refresh", "esc", "back")
}
