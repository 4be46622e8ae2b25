package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/gatepass/internal/session"
)

// loginResultMsg carries the outcome of Login.
type loginResultMsg struct {
	phone  string
	result session.Result
}

// otpResultMsg carries the outcome of VerifyOTP or ResendOTP.
type otpResultMsg struct {
	resend bool
	result session.Result
}

// registerResultMsg carries the outcome of Register.
type registerResultMsg struct {
	phone  string
	result session.Result
}

// showRegisterMsg and showLoginMsg switch between the sign-in screens.
type showRegisterMsg struct{}
type showLoginMsg struct{ notice string }

const (
	loginPhone = iota
	loginPassword
)

type loginModel struct {
	session Session
	form    form
	busy    bool
	err     string
	notice  string
}

func newLoginModel(s Session) loginModel {
	return loginModel{
		session: s,
		form: form{fields: []textField{
			{label: "Mobile", placeholder: "+92-300-1234567", limit: 20},
			{label: "Password", secret: true, limit: 64},
		}},
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.busy = false
		if !msg.result.OK {
			m.err = msg.result.Message
			return m, nil
		}
		m.form.fields[loginPassword].value = ""
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		m.err = ""
		switch msg.String() {
		case "enter":
			if m.form.focus == loginPhone {
				m.form.next()
				return m, nil
			}
			return m.submit()
		case "ctrl+r":
			return m, func() tea.Msg { return showRegisterMsg{} }
		default:
			m.form.handleKey(msg.String())
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	phone := m.form.value(loginPhone)
	password := m.form.fields[loginPassword].value
	if phone == "" || password == "" {
		m.err = "mobile number and password are required"
		return m, nil
	}
	m.busy = true
	m.notice = ""
	s := m.session
	return m, func() tea.Msg {
		return loginResultMsg{phone: phone, result: s.Login(context.Background(), phone, password)}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", titleStyle.Render("Sign in"))
	b.WriteString(m.form.View())
	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString("  " + dimStyle.Render("signing in..."))
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err))
	case m.notice != "":
		b.WriteString("  " + noticeStyle.Render(m.notice))
	}
	return b.String()
}

func (m loginModel) helpKeys() string {
	return helpBar("tab", "next", "enter", "sign in", "ctrl+r", "register", "ctrl+c", "quit")
}

// otpModel asks for the one-time code sent to an untrusted device.
type otpModel struct {
	session Session
	phone   string
	code    textField
	busy    bool
	err     string
	notice  string
}

func newOTPModel(s Session, phone, debugOTP string) otpModel {
	m := otpModel{
		session: s,
		phone:   phone,
		code:    textField{label: "Code", placeholder: "6 digits", limit: 8},
		notice:  "A verification code was sent to " + phone,
	}
	if debugOTP != "" {
		m.notice += " (code " + debugOTP + ")"
	}
	return m
}

func (m otpModel) Update(msg tea.Msg) (otpModel, tea.Cmd) {
	switch msg := msg.(type) {
	case otpResultMsg:
		m.busy = false
		switch {
		case !msg.result.OK:
			m.err = msg.result.Message
		case msg.resend:
			m.notice = "A new code was sent"
			if msg.result.DebugOTP != "" {
				m.notice += " (code " + msg.result.DebugOTP + ")"
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		m.err = ""
		s, phone := m.session, m.phone
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return showLoginMsg{} }
		case "ctrl+r":
			m.busy = true
			return m, func() tea.Msg {
				return otpResultMsg{resend: true, result: s.ResendOTP(context.Background(), phone)}
			}
		case "enter":
			code := strings.TrimSpace(m.code.value)
			if code == "" {
				m.err = "enter the code"
				return m, nil
			}
			m.busy = true
			return m, func() tea.Msg {
				return otpResultMsg{result: s.VerifyOTP(context.Background(), phone, code)}
			}
		default:
			k := msg.String()
			if k == "backspace" || (len(k) == 1 && k[0] >= '0' && k[0] <= '9') {
				m.code.edit(k)
			}
		}
	}
	return m, nil
}

func (m otpModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", titleStyle.Render("Verify this device"))
	fmt.Fprintf(&b, "  %s\n\n", dimStyle.Render(m.notice))
	b.WriteString(m.code.render(true, 4) + "\n\n")
	switch {
	case m.busy:
		b.WriteString("  " + dimStyle.Render("verifying..."))
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err))
	}
	return b.String()
}

func (m otpModel) helpKeys() string {
	return helpBar("enter", "verify", "ctrl+r", "resend", "esc", "back")
}

const (
	regPhone = iota
	regName
	regCNIC
	regPassword
	regConfirm
)

type registerModel struct {
	session Session
	form    form
	busy    bool
	err     string
}

func newRegisterModel(s Session) registerModel {
	return registerModel{
		session: s,
		form: form{fields: []textField{
			{label: "Mobile", placeholder: "+92-300-1234567", limit: 20},
			{label: "Full name", limit: 80},
			{label: "CNIC", placeholder: "12345-1234567-1", limit: 15},
			{label: "Password", secret: true, limit: 64},
			{label: "Confirm", secret: true, limit: 64},
		}},
	}
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case registerResultMsg:
		m.busy = false
		if !msg.result.OK {
			m.err = msg.result.Message
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		m.err = ""
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return showLoginMsg{} }
		case "ctrl+s":
			return m.submit()
		case "enter":
			if m.form.focus == regConfirm {
				return m.submit()
			}
			m.form.next()
		default:
			m.form.handleKey(msg.String())
		}
	}
	return m, nil
}

func (m registerModel) submit() (registerModel, tea.Cmd) {
	in := session.RegisterInput{
		Phone:        m.form.value(regPhone),
		Name:         m.form.value(regName),
		CNIC:         m.form.value(regCNIC),
		Password:     m.form.fields[regPassword].value,
		Confirmation: m.form.fields[regConfirm].value,
	}
	switch {
	case in.Phone == "" || in.Password == "":
		m.err = "mobile number and password are required"
		return m, nil
	case in.Password != in.Confirmation:
		m.err = "passwords do not match"
		return m, nil
	}
	m.busy = true
	s := m.session
	return m, func() tea.Msg {
		return registerResultMsg{phone: in.Phone, result: s.Register(context.Background(), in)}
	}
}

func (m registerModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", titleStyle.Render("Create an account"))
	b.WriteString(m.form.View())
	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString("  " + dimStyle.Render("registering..."))
	case m.err != "":
		b.WriteString("  " + errorStyle.Render(m.err))
	}
	return b.String()
}

func (m registerModel) helpKeys() string {
	return helpBar("tab", "next", "ctrl+s", "register", "esc", "back")
}
