package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/gatepass/pkg/domain"
)

// visitListSize is how many recent visits the home screen asks for.
const visitListSize = 20

type visitsLoadedMsg struct {
	visits []domain.Visit
	err    error
}

// openPassMsg asks the App to show the visitor pass for id.
type openPassMsg struct{ id string }

// openRequestMsg asks the App to show the visit request form.
type openRequestMsg struct{}

// openSettingsMsg asks the App to show settings.
type openSettingsMsg struct{}

type homeModel struct {
	visits  Visits
	name    string
	list    []domain.Visit
	cursor  int
	loading bool
	err     error
	height  int
}

func newHomeModel(v Visits, name string) homeModel {
	return homeModel{visits: v, name: name, loading: true}
}

func (m homeModel) Init() tea.Cmd {
	v := m.visits
	if v == nil {
		return nil
	}
	return func() tea.Msg {
		list, err := v.ListVisits(context.Background(), visitListSize)
		return visitsLoadedMsg{visits: list, err: err}
	}
}

func (m homeModel) Update(msg tea.Msg) (homeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height

	case visitsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.list = msg.visits
			if m.cursor >= len(m.list) {
				m.cursor = max(len(m.list)-1, 0)
			}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.list)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if m.cursor < len(m.list) {
				id := m.list[m.cursor].ID.String()
				return m, func() tea.Msg { return openPassMsg{id: id} }
			}
		case "n":
			return m, func() tea.Msg { return openRequestMsg{} }
		case "o":
			return m, func() tea.Msg { return openSettingsMsg{} }
		case "r":
			m.loading = true
			return m, m.Init()
		}
	}
	return m, nil
}

func (m homeModel) View() string {
	var b strings.Builder
	greeting := "Welcome"
	if m.name != "" {
		greeting = "Hi, " + m.name
	}
	fmt.Fprintf(&b, "\n  %s\n\n", titleStyle.Render(greeting))

	switch {
	case m.loading && len(m.list) == 0:
		b.WriteString("  " + dimStyle.Render("loading visits..."))
		return b.String()
	case m.err != nil:
		b.WriteString("  " + errorStyle.Render("error: "+m.err.Error()))
		return b.String()
	case len(m.list) == 0:
		b.WriteString("  " + dimStyle.Render("no visits yet, press n to request one"))
		return b.String()
	}

	fmt.Fprintf(&b, "  %s\n", metaStyle.Render(fmt.Sprintf("%-10s %-22s %-18s %s", "CODE", "VISITOR", "FROM", "STATUS")))
	for i, v := range m.list {
		visitor := "-"
		if p := v.Primary(); p != nil {
			visitor = p.FullName
		}
		code := v.Code
		if code == "" {
			code = "#" + v.ID.String()
		}
		row := fmt.Sprintf("%-10s %-22s %-18s ", truncStr(code, 10), truncStr(visitor, 22), truncStr(formatVisitTime(v.From), 18))
		status := statusStyle(v.Status).Render(v.Status.Name)
		if i == m.cursor {
			b.WriteString(accentStyle.Render("> ") + selectedRowBg.Render(selectedStyle.Render(row)) + status + "\n")
		} else {
			b.WriteString("  " + normalStyle.Render(row) + status + "\n")
		}
	}
	return b.String()
}

func (m homeModel) helpKeys() string {
	return helpBar("j/k", "nav", "enter", "pass", "n", "new visit", "r", "refresh", "o", "settings", "h", "help", "q", "quit")
}
