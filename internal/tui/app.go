// Package tui is the terminal front end: a bubbletea program whose root
// model doubles as the navigation handle for push notifications.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/gatepass/internal/locate"
	"github.com/naveenspark/gatepass/internal/notify"
	"github.com/naveenspark/gatepass/internal/session"
	"github.com/naveenspark/gatepass/pkg/domain"
)

// Session is the session controller as the screens use it.
type Session interface {
	Restore(ctx context.Context) *session.Validation
	Login(ctx context.Context, phone, password string) session.Result
	VerifyOTP(ctx context.Context, phone, code string) session.Result
	ResendOTP(ctx context.Context, phone string) session.Result
	Register(ctx context.Context, in session.RegisterInput) session.Result
	EnableBiometricLogin(ctx context.Context) bool
	Logout(ctx context.Context)
	UntrustAllDevices(ctx context.Context) bool
	UntrustCurrentDevice(ctx context.Context) bool

	User() *domain.User
	DisplayName() string
	BiometricEnabled() bool
	BiometricSupported() bool

	Handle(m notify.Message, nav notify.Navigator) notify.Outcome
	DrainPending(nav notify.Navigator) bool
}

// Visits is the visit API used by the home, request and pass screens.
type Visits interface {
	VisitOptions(ctx context.Context) (*domain.VisitOptions, error)
	ListVisits(ctx context.Context, record int) ([]domain.Visit, error)
	GetVisit(ctx context.Context, id string) (*domain.Visit, error)
	CreateVisit(ctx context.Context, req domain.VisitRequest, fix *domain.LocationFix) (string, error)
}

// Options wires an App. Location, Prompter and Inbox may be nil.
type Options struct {
	Session  Session
	Visits   Visits
	Location *locate.Pending
	Prompter *PinPrompter
	Inbox    <-chan notify.Message

	PendingPollInterval time.Duration
	Version             string
	// ReleaseURL is checked for newer releases; empty disables the check.
	ReleaseURL string
}

type screen int

const (
	screenSplash screen = iota
	screenLogin
	screenOTP
	screenRegister
	screenHome
	screenRequest
	screenPass
	screenSettings
)

// restoreSettledMsg is sent once the startup unlock attempt is over.
type restoreSettledMsg struct {
	validation *session.Validation
}

// validatedMsg carries the background validation of a restored session.
type validatedMsg struct{ err error }

type inboxMsg struct{ m notify.Message }

type pendingTickMsg struct{}

// showHomeMsg returns to the visit list.
type showHomeMsg struct{}

// App is the root Bubbletea model.
type App struct {
	opts Options
	nav  *navigator

	screen   screen
	login    loginModel
	otp      otpModel
	register registerModel
	home     homeModel
	request  requestModel
	pass     passModel
	settings settingsModel
	pin      pinModel

	pinOpen    bool
	helpOpen   bool
	restored   bool
	validating bool
	polling    bool
	banner     string

	width  int
	height int
	frame  int
}

// NewApp creates the TUI application.
func NewApp(opts Options) App {
	if opts.PendingPollInterval <= 0 {
		opts.PendingPollInterval = session.DefaultPendingInterval
	}
	return App{
		opts:     opts,
		nav:      &navigator{},
		screen:   screenSplash,
		login:    newLoginModel(opts.Session),
		settings: newSettingsModel(opts.Session),
	}
}

// Navigator returns the navigation handle the app applies routes from.
func (a App) Navigator() notify.Navigator { return a.nav }

func (a App) Init() tea.Cmd {
	return tea.Batch(
		shimmerTickCmd(),
		a.restore(),
		a.opts.Prompter.wait(),
		a.waitInbox(),
		checkVersion(a.opts.ReleaseURL, a.opts.Version),
	)
}

func (a App) restore() tea.Cmd {
	s := a.opts.Session
	return func() tea.Msg {
		return restoreSettledMsg{validation: s.Restore(context.Background())}
	}
}

func (a App) waitInbox() tea.Cmd {
	ch := a.opts.Inbox
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		m, ok := <-ch
		if !ok {
			return nil
		}
		return inboxMsg{m: m}
	}
}

func (a App) pendingTick() tea.Cmd {
	return tea.Tick(a.opts.PendingPollInterval, func(time.Time) tea.Msg { return pendingTickMsg{} })
}

func (a *App) updateReady() {
	a.nav.setReady(a.width > 0 && a.restored)
}

// startPolling begins the pending-notification poll if it is not running.
func (a *App) startPolling() tea.Cmd {
	if a.polling {
		return nil
	}
	a.polling = true
	return a.pendingTick()
}

func (a *App) enterHome() tea.Cmd {
	a.screen = screenHome
	a.home = newHomeModel(a.opts.Visits, a.opts.Session.DisplayName())
	a.home.height = a.height
	return tea.Batch(a.home.Init(), a.startPolling())
}

func (a *App) openPass(id string) tea.Cmd {
	a.screen = screenPass
	a.pass = newPassModel(a.opts.Visits, id)
	return a.pass.Init()
}

func (a *App) openRequest() tea.Cmd {
	a.screen = screenRequest
	a.request = newRequestModel(a.opts.Visits, a.opts.Location)
	return a.request.Init()
}

func (a *App) showLogin(notice, phone string) {
	a.screen = screenLogin
	a.login = newLoginModel(a.opts.Session)
	a.login.notice = notice
	if phone != "" {
		a.login.form.fields[loginPhone].value = phone
		a.login.form.focus = loginPassword
	}
}

// applyRoutes performs the navigation calls recorded since the last Update.
func (a *App) applyRoutes() tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range a.nav.take() {
		switch r.Screen {
		case notify.ScreenHome:
			cmds = append(cmds, a.enterHome())
		case notify.ScreenVisitRequest:
			cmds = append(cmds, a.openRequest())
		case notify.ScreenVisitorPass:
			cmds = append(cmds, a.openPass(r.ID))
		}
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	a, cmd := a.update(msg)
	routes := a.applyRoutes()
	return a, tea.Batch(cmd, routes)
}

func (a App) update(msg tea.Msg) (App, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.home, _ = a.home.Update(tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4})
		a.updateReady()
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case restoreSettledMsg:
		a.restored = true
		a.updateReady()
		if msg.validation == nil {
			a.showLogin("", "")
			return a, nil
		}
		a.validating = true
		v := msg.validation
		wait := func() tea.Msg { return validatedMsg{err: v.Wait(context.Background())} }
		a.screen = screenHome
		a.home = newHomeModel(a.opts.Visits, "")
		return a, tea.Batch(wait, a.home.Init())

	case validatedMsg:
		a.validating = false
		switch {
		case msg.err == nil:
			a.home.name = a.opts.Session.DisplayName()
			poll := a.startPolling()
			return a, poll
		case errors.Is(msg.err, session.ErrSuperseded):
			return a, nil
		default:
			a.polling = false
			a.showLogin("Your session has expired. Please sign in.", "")
			return a, nil
		}

	case versionCheckMsg:
		if msg.hasUpdate && a.banner == "" {
			a.banner = "gatepass " + msg.latestVersion + " is available"
		}
		return a, nil

	case pinRequestMsg:
		a.pin = newPinModel(pinRequest(msg))
		a.pinOpen = true
		return a, nil

	case inboxMsg:
		if n := msg.m.Notification; n != nil && n.Title != "" {
			a.banner = strings.TrimSpace(n.Title + ": " + n.Body)
		}
		out := a.opts.Session.Handle(msg.m, a.nav)
		var cmd tea.Cmd
		if out == notify.Deferred && a.opts.Session.User() != nil {
			cmd = a.startPolling()
		}
		return a, tea.Batch(cmd, a.waitInbox())

	case pendingTickMsg:
		if !a.polling {
			return a, nil
		}
		if a.opts.Session.User() == nil {
			a.polling = false
			return a, nil
		}
		if a.opts.Session.DrainPending(a.nav) {
			a.polling = false
			return a, nil
		}
		return a, a.pendingTick()

	case loginResultMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		if !msg.result.OK {
			return a, cmd
		}
		if msg.result.OTPRequired {
			a.screen = screenOTP
			a.otp = newOTPModel(a.opts.Session, msg.phone, msg.result.DebugOTP)
			return a, cmd
		}
		home := a.enterHome()
		return a, tea.Batch(cmd, home)

	case otpResultMsg:
		var cmd tea.Cmd
		a.otp, cmd = a.otp.Update(msg)
		if msg.result.OK && !msg.resend {
			home := a.enterHome()
			return a, tea.Batch(cmd, home)
		}
		return a, cmd

	case registerResultMsg:
		var cmd tea.Cmd
		a.register, cmd = a.register.Update(msg)
		switch {
		case !msg.result.OK:
			return a, cmd
		case msg.result.Token != "":
			home := a.enterHome()
			return a, tea.Batch(cmd, home)
		default:
			a.showLogin("Account created. Sign in to continue.", msg.phone)
			return a, cmd
		}

	case showRegisterMsg:
		a.screen = screenRegister
		a.register = newRegisterModel(a.opts.Session)
		return a, nil

	case showLoginMsg:
		a.showLogin(msg.notice, "")
		return a, nil

	case showHomeMsg:
		a.screen = screenHome
		a.home.loading = true
		return a, a.home.Init()

	case openPassMsg:
		cmd := a.openPass(msg.id)
		return a, cmd

	case openRequestMsg:
		cmd := a.openRequest()
		return a, cmd

	case openSettingsMsg:
		a.screen = screenSettings
		a.settings = newSettingsModel(a.opts.Session)
		return a, nil

	case loggedOutMsg:
		a.polling = false
		a.showLogin("Signed out.", "")
		return a, nil

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}

	return a.forward(msg)
}

func (a App) updateKeys(msg tea.KeyMsg) (App, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if a.pinOpen {
			a.pin = a.pin.Update(tea.KeyMsg{Type: tea.KeyEsc})
		}
		return a, tea.Quit
	}

	if a.pinOpen {
		a.pin = a.pin.Update(msg)
		if a.pin.done {
			a.pinOpen = false
			return a, a.opts.Prompter.wait()
		}
		return a, nil
	}

	if a.helpOpen {
		switch msg.String() {
		case "h", "esc":
			a.helpOpen = false
		case "q":
			return a, tea.Quit
		}
		return a, nil
	}

	if !a.isEditing() {
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "h", "?":
			a.helpOpen = true
			return a, nil
		}
	}
	return a.forward(msg)
}

// forward hands msg to the active screen.
func (a App) forward(msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	switch a.screen {
	case screenLogin:
		a.login, cmd = a.login.Update(msg)
	case screenOTP:
		a.otp, cmd = a.otp.Update(msg)
	case screenRegister:
		a.register, cmd = a.register.Update(msg)
	case screenHome:
		a.home, cmd = a.home.Update(msg)
	case screenRequest:
		a.request, cmd = a.request.Update(msg)
	case screenPass:
		a.pass, cmd = a.pass.Update(msg)
	case screenSettings:
		a.settings, cmd = a.settings.Update(msg)
	}
	return a, cmd
}

func (a App) isEditing() bool {
	switch a.screen {
	case screenLogin, screenOTP, screenRegister, screenRequest:
		return true
	}
	return false
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	pad := max((a.width-lipgloss.Width(logo))/2, 0)
	header := strings.Repeat(" ", pad) + logo

	status := ""
	switch {
	case a.validating:
		status = dimStyle.Render("verifying session...")
	case a.opts.Session != nil && a.opts.Session.User() != nil:
		u := a.opts.Session.User()
		status = metaStyle.Render(fmt.Sprintf("signed in as %s . %s", u.Name, u.MobileNumber))
	}
	if status != "" {
		header += "\n" + strings.Repeat(" ", max((a.width-lipgloss.Width(status))/2, 0)) + status
	} else {
		header += "\n"
	}

	var body, help string
	switch a.screen {
	case screenSplash:
		body = "\n  " + dimStyle.Render("restoring session...")
		help = helpBar("ctrl+c", "quit")
	case screenLogin:
		body, help = a.login.View(), a.login.helpKeys()
	case screenOTP:
		body, help = a.otp.View(), a.otp.helpKeys()
	case screenRegister:
		body, help = a.register.View(), a.register.helpKeys()
	case screenHome:
		body, help = a.home.View(), a.home.helpKeys()
	case screenRequest:
		body, help = a.request.View(), a.request.helpKeys()
	case screenPass:
		body, help = a.pass.View(), a.pass.helpKeys()
	case screenSettings:
		body, help = a.settings.View(), a.settings.helpKeys()
	}

	if a.helpOpen {
		body = helpView()
		help = helpBar("esc", "close")
	}
	if a.pinOpen {
		body = a.pin.View()
		help = helpBar("enter", "confirm", "esc", "cancel")
	}

	banner := ""
	if a.banner != "" {
		banner = " " + noticeStyle.Render(truncStr(a.banner, max(a.width-2, 10)))
	}

	// Chrome: header(2) + banner(1) + help(1)
	body = strings.TrimRight(truncateToHeight(body, a.height-4), "\n")
	return fmt.Sprintf("%s\n%s\n%s\n%s", header, body, banner, help)
}
