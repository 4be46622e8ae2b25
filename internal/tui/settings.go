package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type settingsAction int

const (
	settingBiometric settingsAction = iota
	settingUntrustOthers
	settingUntrustThis
	settingLogout
)

type settingsItem struct {
	action settingsAction
	label  string
	desc   string
}

var settingsItems = []settingsItem{
	{settingBiometric, "Quick login", "Unlock with a PIN on next launch"},
	{settingUntrustOthers, "Untrust other devices", "They will need an OTP on next login"},
	{settingUntrustThis, "Untrust this device", "Require an OTP here next time"},
	{settingLogout, "Log out", "Ends the session and removes quick login"},
}

type settingDoneMsg struct {
	action settingsAction
	ok     bool
}

// loggedOutMsg is sent once Logout has finished.
type loggedOutMsg struct{}

type settingsModel struct {
	session Session
	cursor  int
	busy    bool
	status  string
	failed  bool
}

func newSettingsModel(s Session) settingsModel {
	return settingsModel{session: s}
}

func (m settingsModel) Update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case settingDoneMsg:
		m.busy = false
		m.failed = !msg.ok
		switch {
		case msg.action == settingBiometric && msg.ok:
			m.status = "quick login enabled"
		case msg.action == settingBiometric:
			m.status = "quick login could not be enabled"
		case msg.ok:
			m.status = "device trust updated"
		default:
			m.status = "request failed"
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return showHomeMsg{} }
		case "j", "down":
			if m.cursor < len(settingsItems)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			return m.run(settingsItems[m.cursor].action)
		}
	}
	return m, nil
}

func (m settingsModel) run(a settingsAction) (settingsModel, tea.Cmd) {
	s := m.session
	m.status = ""
	if a == settingBiometric && s.BiometricEnabled() {
		m.status = "quick login is already on"
		return m, nil
	}
	m.busy = true
	ctx := context.Background()
	switch a {
	case settingBiometric:
		return m, func() tea.Msg { return settingDoneMsg{action: a, ok: s.EnableBiometricLogin(ctx)} }
	case settingUntrustOthers:
		return m, func() tea.Msg { return settingDoneMsg{action: a, ok: s.UntrustAllDevices(ctx)} }
	case settingUntrustThis:
		return m, func() tea.Msg { return settingDoneMsg{action: a, ok: s.UntrustCurrentDevice(ctx)} }
	default:
		return m, func() tea.Msg {
			s.Logout(ctx)
			return loggedOutMsg{}
		}
	}
}

func (m settingsModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", titleStyle.Render("Settings"))
	for i, item := range settingsItems {
		label := item.label
		if item.action == settingBiometric {
			switch {
			case m.session.BiometricEnabled():
				label += " (on)"
			case !m.session.BiometricSupported():
				label += " (unavailable)"
			}
		}
		if i == m.cursor {
			fmt.Fprintf(&b, "%s%s  %s\n", accentStyle.Render("> "), selectedStyle.Render(fmt.Sprintf("%-24s", label)), dimStyle.Render(item.desc))
		} else {
			fmt.Fprintf(&b, "  %s  %s\n", normalStyle.Render(fmt.Sprintf("%-24s", label)), metaStyle.Render(item.desc))
		}
	}
	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString("  " + dimStyle.Render("working..."))
	case m.failed:
		b.WriteString("  " + errorStyle.Render(m.status))
	case m.status != "":
		b.WriteString("  " + noticeStyle.Render(m.status))
	}
	return b.String()
}

func (m settingsModel) helpKeys() string {
	return helpBar("j/k", "nav", "enter", "select", "esc", "back")
}
