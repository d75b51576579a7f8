// Package rest exposes the rxauth core over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/rxauth/internal/logging"
	"github.com/dmitrijs2005/rxauth/internal/server/auth"
	"github.com/dmitrijs2005/rxauth/internal/server/metrics"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"github.com/dmitrijs2005/rxauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
}

type Provisioner interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Registration, error)
}

type ProfileReader interface {
	GetByAccount(ctx context.Context, accountID string) (*models.PractitionerProfile, error)
}

type SessionIssuer interface {
	Issue(id models.Identity) (string, time.Time, error)
	Hydrate(token string) (*auth.SessionView, error)
	Lifetime() time.Duration
}

// Pinger reports storage health for /healthz.
type Pinger func(ctx context.Context) error

// Deps are the collaborators of the HTTP server. Metrics, Gatherer and Ping
// are optional.
type Deps struct {
	Authenticator Authenticator
	Provisioner   Provisioner
	Profiles      ProfileReader
	Sessions      SessionIssuer
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Ping          Pinger
	Logger        logging.Logger
}

// CookieOptions configure the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

type Server struct {
	addr    string
	engine  *gin.Engine
	logger  logging.Logger
	handler *handler
}

// NewServer builds the gin engine with all routes and middleware.
func NewServer(addr string, cookie CookieOptions, deps Deps) *Server {
	h := &handler{
		authenticator: deps.Authenticator,
		provisioner:   deps.Provisioner,
		profiles:      deps.Profiles,
		sessions:      deps.Sessions,
		cookie:        cookie,
		ping:          deps.Ping,
		logger:        deps.Logger,
	}

	engine := gin.New()
	engine.Use(
		requestID(),
		requestLogger(deps.Logger),
		recovery(deps.Logger),
		requestMetrics(deps.Metrics),
		hydrateSession(deps.Sessions, cookie.Name),
	)

	engine.GET("/healthz", h.health)
	if deps.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authGroup := engine.Group("/auth")
	authGroup.POST("/login", h.login)
	authGroup.GET("/session", h.session)
	authGroup.POST("/logout", h.logout)

	doctor := engine.Group("/doctor")
	doctor.POST("/register", h.register)
	doctor.GET("/profile", requireSession(), h.profile)

	return &Server{addr: addr, engine: engine, logger: deps.Logger, handler: h}
}

// Handler exposes the engine, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr and serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting HTTP server", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
