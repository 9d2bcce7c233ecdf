// Package console is the shared core of the terminal clients: it wires
// the REST client, the live stream, and the rendered view together, and
// runs the command loop. The guard and resident binaries differ only in
// their title and command set.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gatepass/internal/api"
	"gatepass/internal/config"
	"gatepass/internal/domain"
	"gatepass/internal/live"
	"gatepass/internal/transport"
	"gatepass/pkg/logger"
)

// Command is one console action, dispatched by its first word.
type Command struct {
	Name  string
	Usage string
	Run   func(ctx context.Context, app *App, args []string) error
}

// Options configures an App.
type Options struct {
	Title    string
	Commands []Command
}

// App owns the console's state: the reconciliation store fed by the live
// stream, the REST client for actions and snapshots, and the rendering
// loop that redraws whenever the store changes.
type App struct {
	cfg      *config.Config
	log      *logger.Logger
	title    string
	commands map[string]Command
	usage    []string

	client  *api.Client
	store   *live.Store
	decoder *live.Decoder
	mgr     *live.Manager
	gate    *live.Gate

	out io.Writer

	mu     sync.Mutex
	notice string
}

// New builds a ready-to-run console app.
func New(cfg *config.Config, log *logger.Logger, opts Options) *App {
	app := &App{
		cfg:      cfg,
		log:      log,
		title:    opts.Title,
		commands: make(map[string]Command),
		client:   api.NewClient(cfg.ServerURL, cfg.AccessToken, log),
		store:    live.NewStore(),
		out:      os.Stdout,
	}
	for _, cmd := range opts.Commands {
		app.commands[cmd.Name] = cmd
		app.usage = append(app.usage, cmd.Usage)
	}

	app.decoder = live.NewDecoder(log)
	for _, kind := range []domain.EventKind{
		domain.EventNewVisitPending,
		domain.EventVisitApproved,
		domain.EventVisitRejected,
		domain.EventVisitAutoApproved,
		domain.EventVisitCancelled,
	} {
		app.decoder.Handle(kind, app.store.Apply)
	}
	app.decoder.Default = func(ev domain.Event) {
		log.WithField("kind", string(ev.Kind)).Debug("ignoring unknown event kind")
	}

	stream := transport.NewSSE(cfg.ServerURL+"/api/events", cfg.AccessToken, log)
	app.mgr = live.NewManager(stream, log, live.ManagerOptions{
		Backoff:     live.NewBackoff(cfg.BackoffBase, cfg.BackoffMax),
		MaxAttempts: cfg.MaxAttempts,
		OnFrame:     app.decoder.Dispatch,
		OnStateChange: func(prev, next live.ConnState) {
			app.store.SetConnState(next)
			if next == live.StateOpen && prev != live.StateIdle {
				// Events may have been missed while offline; re-seed from
				// the snapshot endpoints outside the manager's lock.
				go app.refresh(context.Background())
			}
		},
		OnExhausted: func() {
			app.setNotice("Live updates unavailable. Use 'refresh' to retry.")
		},
	})
	app.gate = live.NewGate(app.mgr, cfg.AuthDebounce, nil)

	return app
}

// Store exposes the reconciliation store, mainly for tests.
func (a *App) Store() *live.Store {
	return a.store
}

// Client exposes the REST client for command implementations.
func (a *App) Client() *api.Client {
	return a.client
}

// ResolveVisitID expands a short id prefix from the listings back into a
// full visit id. Unknown ids pass through untouched so full ids always
// work.
func (a *App) ResolveVisitID(arg string) (string, error) {
	match := ""
	for _, v := range append(a.store.Pending(), a.store.Today()...) {
		if v.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(v.ID, arg) {
			if match != "" && match != v.ID {
				return "", fmt.Errorf("id %q is ambiguous", arg)
			}
			match = v.ID
		}
	}
	if match != "" {
		return match, nil
	}
	return arg, nil
}

// setNotice replaces the one-line notice under the header and redraws.
func (a *App) setNotice(msg string) {
	a.mu.Lock()
	a.notice = msg
	a.mu.Unlock()
	a.redraw()
}

func (a *App) currentNotice() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notice
}

// refresh re-seeds the store from the snapshot endpoints.
func (a *App) refresh(ctx context.Context) {
	if err := a.client.Refresh(ctx, a.store); err != nil {
		a.log.WithError(err).Warn("snapshot refresh failed")
		a.setNotice("Refresh failed: " + err.Error())
		return
	}
	a.setNotice("")
}

func (a *App) redraw() {
	fmt.Fprint(a.out, "\033[2J\033[H")
	fmt.Fprintln(a.out, renderView(a.title, a.store, a.currentNotice()))
	fmt.Fprint(a.out, "> ")
}

// Run starts the live session and processes commands from in until EOF,
// "quit", or context cancellation.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	a.store.Subscribe(a.redraw)

	a.refresh(ctx)
	a.gate.SetAuthenticated(true)
	defer a.gate.Close()

	a.redraw()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			a.redraw()
			continue
		}

		name, args := fields[0], fields[1:]
		switch name {
		case "quit", "exit":
			return nil
		case "refresh":
			a.refresh(ctx)
			continue
		case "help":
			a.setNotice(strings.Join(a.usage, "  |  "))
			continue
		}

		cmd, ok := a.commands[name]
		if !ok {
			a.setNotice("Unknown command. " + strings.Join(a.usage, "  |  "))
			continue
		}
		if err := cmd.Run(ctx, a, args); err != nil {
			a.setNotice(err.Error())
			continue
		}
		a.setNotice("")
	}
	return scanner.Err()
}
