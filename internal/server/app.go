// Package server wires configuration, storage and the auth service together
// and runs the gRPC and REST endpoints until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/rest"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	auth   *services.AuthService
}

// NewApp opens the configured storage, applies migrations and builds the
// auth service. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(c.LogFormat, w)
	if err != nil {
		return nil, err
	}

	repos, err := repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close(ctx)
		return nil, fmt.Errorf("migration error: %w", err)
	}

	if c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "using the development JWT secret; set JWT_SECRET in production")
	}

	return &App{
		config: c,
		logger: logger,
		repos:  repos,
		auth:   services.NewAuthServiceFromConfig(repos.Users(), c),
	}, nil
}

// Run serves until ctx is done or one of the endpoints fails. Storage is
// closed on the way out.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.auth).Run(gCtx)
	})

	if app.config.EndpointAddrHTTP != "" {
		g.Go(func() error {
			return rest.NewServer(app.config.EndpointAddrHTTP, app.logger, app.auth, app.config.ShutdownTimeout).Run(gCtx)
		})
	}

	runErr := g.Wait()

	closeErr := app.repos.Close(context.WithoutCancel(ctx))
	if closeErr != nil {
		app.logger.Error(ctx, "storage close error", "error", closeErr.Error())
	}

	app.logger.Info(ctx, "App stopped")
	return errors.Join(runErr, closeErr)
}
