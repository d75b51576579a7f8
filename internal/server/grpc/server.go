// Package grpc serves rxauth.v1.AuthService to other services.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/rxauth/internal/logging"
	"github.com/dmitrijs2005/rxauth/internal/server/auth"
	"github.com/dmitrijs2005/rxauth/internal/server/metrics"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"github.com/dmitrijs2005/rxauth/internal/server/services"
	"google.golang.org/grpc"
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
}

type Provisioner interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Registration, error)
}

type SessionIssuer interface {
	Issue(id models.Identity) (string, time.Time, error)
	Hydrate(token string) (*auth.SessionView, error)
}

type GRPCServer struct {
	address       string
	authenticator Authenticator
	provisioner   Provisioner
	sessions      SessionIssuer
	metrics       *metrics.Metrics
	logger        logging.Logger
}

var _ AuthServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(address string, l logging.Logger, a Authenticator, p Provisioner, s SessionIssuer, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:       address,
		logger:        l.With("module", "grpc_server"),
		authenticator: a,
		provisioner:   p,
		sessions:      s,
		metrics:       m,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.recoveryInterceptor,
		s.metricsInterceptor,
		s.accessTokenInterceptor,
	))
	srv.RegisterService(&AuthServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
