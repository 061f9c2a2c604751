package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/personify/internal/repositories"
	"github.com/desertthunder/personify/internal/server"
	"github.com/desertthunder/personify/internal/services"
	"github.com/desertthunder/personify/internal/shared"
	"github.com/urfave/cli/v3"
)

const sweepInterval = time.Minute

// Serve runs the web service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.cfg()
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = int(port)
	}

	router, app, db, err := r.service(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go app.SweepSessions(ctx, sweepInterval)

	r.writePlain("→ Serving on http://%s\n", config.Server.Addr())
	return server.Serve(ctx, config.Server.Addr(), router, r.logger)
}

// service opens the session database and wires the web service. The caller closes the database.
func (r *Runner) service(ctx context.Context) (*server.BasicRouter, *server.App, *sql.DB, error) {
	config := r.cfg()

	auth, err := r.spotifyAuth()
	if err != nil {
		return nil, nil, nil, err
	}
	gen, err := r.generator(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	comp, err := r.compositor()
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	app := server.NewApp(repositories.NewSessionRepository(db), auth, gen, comp, server.AppOptions{
		PublicURL:  config.Server.PublicURL,
		SessionTTL: config.Server.SessionTTL(),
		MaxRetries: config.AI.MaxRetries,
		RetryDelay: config.AI.RetryDelay(),
		TrackLimit: services.DefaultTopTracks,
		Logger:     r.logger,
	})

	return server.NewServiceRouter(app, config.Server, r.logger), app, db, nil
}
