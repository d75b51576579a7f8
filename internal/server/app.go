// Package server wires configuration, storage, the core services and both
// transports (HTTP and gRPC) into a runnable application.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/rxauth/internal/cryptox"
	"github.com/dmitrijs2005/rxauth/internal/logging"
	"github.com/dmitrijs2005/rxauth/internal/server/auth"
	"github.com/dmitrijs2005/rxauth/internal/server/config"
	"github.com/dmitrijs2005/rxauth/internal/server/metrics"
	"github.com/dmitrijs2005/rxauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rxauth/internal/server/rest"
	"github.com/dmitrijs2005/rxauth/internal/server/services"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"

	gs "github.com/dmitrijs2005/rxauth/internal/server/grpc"
)

// pingBackoff controls how long startup waits for PostgreSQL.
var pingBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	httpServer  *rest.Server
	grpcServer  *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(os.Stdout, c.Debug)
	logger.Info(ctx, "configuration loaded", "config", c)

	if !c.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	m, err := openStorage(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	hasher, err := cryptox.NewHasher(cryptox.Algorithm(c.PasswordHashAlgorithm), c.BcryptCost)
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	registry := metrics.NewRegistry()
	mt := metrics.New(registry)

	authenticator, err := services.NewAuthenticator(m, hasher, logger, mt)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("authenticator init error: %w", err)
	}
	provisioner := services.NewProvisioner(m, hasher, logger, mt)
	profiles := services.NewProfileService(m, logger)
	sessions := auth.NewTokenIssuer([]byte(c.SecretKey), c.SessionLifetime)

	httpServer := rest.NewServer(c.EndpointAddrHTTP,
		rest.CookieOptions{Name: c.CookieName, Secure: c.CookieSecure},
		rest.Deps{
			Authenticator: authenticator,
			Provisioner:   provisioner,
			Profiles:      profiles,
			Sessions:      sessions,
			Metrics:       mt,
			Gatherer:      registry,
			Ping:          m.Ping,
			Logger:        logger.With("module", "http_server"),
		})

	grpcServer := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, authenticator, provisioner, sessions, mt)

	return &App{
		config:      c,
		logger:      logger,
		repomanager: m,
		httpServer:  httpServer,
		grpcServer:  grpcServer,
	}, nil
}

// openStorage returns the configured repository manager. For PostgreSQL it
// waits for the database to accept connections and applies migrations.
func openStorage(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.Storage == config.StorageMemory {
		logger.Warn(ctx, "using in-memory storage; data is lost on restart")
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	err = retry.Do(ctx, pingBackoff(), func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn(ctx, "database not reachable yet", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db connect error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	return m, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves HTTP and gRPC until ctx is cancelled, a termination signal
// arrives or either server fails. Storage is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	run := func(name string, serve func(context.Context) error) {
		defer wg.Done()
		if err := serve(ctx); err != nil {
			app.logger.Error(ctx, "server failed", "server", name, "error", err)
			errs <- fmt.Errorf("%s: %w", name, err)
			cancelFunc()
		}
	}

	wg.Add(2)
	go run("http", app.httpServer.Run)
	go run("grpc", app.grpcServer.Run)
	wg.Wait()
	close(errs)

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "closing storage failed", "error", err)
	}

	app.logger.Info(ctx, "App stopped")

	return <-errs
}
