package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gatepass/internal/api"
	"gatepass/internal/config"
	"gatepass/internal/console"
	"gatepass/internal/domain"
	"gatepass/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.AccessToken == "" {
		fmt.Fprintln(os.Stderr, "GATEPASS_TOKEN is required")
		os.Exit(1)
	}

	app := console.New(cfg, log, console.Options{
		Title:    "Gate Console",
		Commands: guardCommands(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Stdin); err != nil && err != context.Canceled {
		log.WithError(err).Error("console exited with error")
		os.Exit(1)
	}
}

func guardCommands() []console.Command {
	return []console.Command{
		{
			Name:  "new",
			Usage: "new <name> <owner-id> <purpose...> [qr=<token>]",
			Run: func(ctx context.Context, app *console.App, args []string) error {
				if len(args) < 3 {
					return fmt.Errorf("usage: new <name> <owner-id> <purpose...> [qr=<token>]")
				}

				req := api.CreateVisitRequest{
					Name:    args[0],
					OwnerID: args[1],
				}
				var purpose []string
				for _, arg := range args[2:] {
					if strings.HasPrefix(arg, "qr=") {
						req.QRToken = strings.TrimPrefix(arg, "qr=")
						continue
					}
					purpose = append(purpose, arg)
				}
				req.Purpose = strings.Join(purpose, " ")

				_, err := app.Client().CreateVisit(ctx, req)
				if err != nil {
					return err
				}
				return app.Client().Refresh(ctx, app.Store())
			},
		},
		{
			Name:  "cancel",
			Usage: "cancel <visit-id>",
			Run:   visitAction((*api.Client).Cancel),
		},
		{
			Name:  "checkout",
			Usage: "checkout <visit-id>",
			Run:   visitAction((*api.Client).Checkout),
		},
	}
}

// visitAction adapts a single-id client call into a console command.
func visitAction(op func(c *api.Client, ctx context.Context, visitID string) (*domain.Visit, error)) func(context.Context, *console.App, []string) error {
	return func(ctx context.Context, app *console.App, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one visit id")
		}
		id, err := app.ResolveVisitID(args[0])
		if err != nil {
			return err
		}
		if _, err := op(app.Client(), ctx, id); err != nil {
			return err
		}
		return app.Client().Refresh(ctx, app.Store())
	}
}
