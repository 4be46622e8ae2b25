package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/gatepass/internal/config"
	"github.com/naveenspark/gatepass/internal/keystore"
	"github.com/naveenspark/gatepass/internal/locate"
	"github.com/naveenspark/gatepass/internal/notify"
	"github.com/naveenspark/gatepass/internal/prefs"
	"github.com/naveenspark/gatepass/internal/push"
	"github.com/naveenspark/gatepass/internal/session"
	"github.com/naveenspark/gatepass/internal/tui"
	"github.com/naveenspark/gatepass/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("gatepass " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		}
	}

	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	if len(args) > 0 {
		switch args[0] {
		case "notify":
			return runNotify(cfg, args[1:])
		case "open":
			if err := runOpen(cfg, args[1:]); err != nil {
				return err
			}
		case "token":
			return runToken(cfg, args[1:])
		case "forget":
			return runForget(cfg)
		default:
			return fmt.Errorf("unknown command %q, see gatepass help", args[0])
		}
	}
	return runTUI(cfg)
}

// messageArg returns the notification JSON named by args: a literal, @file,
// or stdin when args is empty or "-".
func messageArg(args []string, stdin io.Reader) ([]byte, error) {
	switch {
	case len(args) == 0 || args[0] == "-":
		raw, err := io.ReadAll(io.LimitReader(stdin, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	case strings.HasPrefix(args[0], "@"):
		raw, err := os.ReadFile(strings.TrimPrefix(args[0], "@"))
		if err != nil {
			return nil, fmt.Errorf("read message: %w", err)
		}
		return raw, nil
	default:
		return []byte(args[0]), nil
	}
}

func runNotify(cfg config.Config, args []string) error {
	raw, err := messageArg(args, os.Stdin)
	if err != nil {
		return err
	}
	name, err := push.Drop(cfg.InboxDir(), raw)
	if err != nil {
		return err
	}
	fmt.Printf("queued %s\n", name)
	return nil
}

// runOpen stores the launch notification read by the TUI on startup.
func runOpen(cfg config.Config, args []string) error {
	raw, err := messageArg(args, os.Stdin)
	if err != nil {
		return err
	}
	return push.DropInitial(cfg.InboxDir(), raw)
}

// runToken hands a rotated push token to the running app.
func runToken(cfg config.Config, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("usage: gatepass token <value>")
	}
	if err := push.DropToken(cfg.InboxDir(), strings.TrimSpace(args[0])); err != nil {
		return err
	}
	fmt.Println("push token queued")
	return nil
}

func userID(ctl *session.Controller) int64 {
	if u := ctl.User(); u != nil {
		return u.ID
	}
	return 0
}

func runForget(cfg config.Config) error {
	store, err := prefs.Open(cfg.PrefsPath())
	if err != nil {
		return err
	}
	ctl := session.New(session.Deps{
		API:         client.New(cfg.APIURL, ""),
		Credentials: keystore.NewFileStore(cfg.KeyPath(), nil),
		Flags:       store,
	})
	defer ctl.Close()
	ctl.Forget()
	fmt.Println("Quick login removed from this device.")
	return nil
}

// openLogger writes to the log file in the data directory; the terminal
// belongs to the TUI.
func openLogger(cfg config.Config) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	closeFn := func() {
		f.Close() //nolint:errcheck
	}
	return logger, closeFn, nil
}

// locationSource picks the fix source: a configured static fix, then an
// HTTP endpoint, otherwise none.
func locationSource(cfg config.Config) locate.Source {
	switch {
	case cfg.Location != nil:
		return locate.Static(*cfg.Location)
	case cfg.LocationURL != "":
		return locate.HTTP{URL: cfg.LocationURL, Client: &http.Client{Timeout: cfg.RequestTimeout}}
	default:
		return locate.None()
	}
}

func runTUI(cfg config.Config) error {
	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := prefs.Open(cfg.PrefsPath())
	if err != nil {
		return err
	}
	deviceID, err := store.DeviceID()
	if err != nil {
		return err
	}
	registry, err := push.NewRegistry(store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := client.New(cfg.APIURL, deviceID,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(logger, cfg.Debug),
	)
	loc := locate.Start(ctx, locationSource(cfg), logger)
	prompter := tui.NewPinPrompter()
	ctl := session.New(session.Deps{
		API:                 api,
		Credentials:         keystore.NewFileStore(cfg.KeyPath(), prompter),
		Flags:               store,
		Push:                registry,
		Location:            loc,
		Logger:              logger,
		RestoreLocationWait: cfg.RestoreLocationWait,
	})
	defer ctl.Close()
	ctl.OnChange(func(s session.State) {
		logger.Info("session", "state", s.String(), "user_id", userID(ctl))
	})

	inbox := push.NewInbox(cfg.InboxDir(), registry, logger)
	messages := make(chan notify.Message, 8)
	go func() {
		if err := inbox.Run(ctx, messages); err != nil {
			logger.Error("push inbox stopped", "err", err)
		}
	}()

	app := tui.NewApp(tui.Options{
		Session:             ctl,
		Visits:              api,
		Location:            loc,
		Prompter:            prompter,
		Inbox:               messages,
		PendingPollInterval: cfg.PendingPollInterval,
		Version:             version,
		ReleaseURL:          tui.DefaultReleaseURL,
	})

	// Nothing can navigate yet, so a launch notification lands in the
	// pending buffer and is replayed after sign-in.
	if m, ok := inbox.TakeInitial(); ok {
		out := ctl.Handle(m, app.Navigator())
		logger.Info("launch notification", "outcome", out.String())
		if p, ok := ctl.Router().Pending().Peek(); ok {
			logger.Info("launch notification pending", "action", string(p.Action))
		}
	}

	logger.Info("starting", "version", version, "api", cfg.APIURL, "device", deviceID)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
