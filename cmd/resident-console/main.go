package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
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
		Title:    "Resident Console",
		Commands: residentCommands(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Stdin); err != nil && err != context.Canceled {
		log.WithError(err).Error("console exited with error")
		os.Exit(1)
	}
}

func residentCommands() []console.Command {
	return []console.Command{
		{
			Name:  "approve",
			Usage: "approve <visit-id>",
			Run:   decision((*api.Client).Approve),
		},
		{
			Name:  "reject",
			Usage: "reject <visit-id>",
			Run:   decision((*api.Client).Reject),
		},
	}
}

// decision adapts an approve/reject client call into a console command.
// The store applies the optimistic result immediately; the pushed event
// that follows is absorbed by the duplicate guard.
func decision(op func(c *api.Client, ctx context.Context, visitID string) (*domain.Visit, error)) func(context.Context, *console.App, []string) error {
	return func(ctx context.Context, app *console.App, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one visit id")
		}
		id, err := app.ResolveVisitID(args[0])
		if err != nil {
			return err
		}
		visit, err := op(app.Client(), ctx, id)
		if err != nil {
			return err
		}

		kind := domain.EventVisitApproved
		if visit.Status == domain.StatusRejected {
			kind = domain.EventVisitRejected
		}
		app.Store().Apply(domain.Event{
			Kind:    kind,
			VisitID: visit.ID,
			Payload: domain.VisitEventPayload{
				VisitID:     visit.ID,
				VisitorName: visit.NameSnapshot,
				Purpose:     visit.Purpose,
				EntryTime:   visit.EntryTime,
			},
		})
		return nil
	}
}
