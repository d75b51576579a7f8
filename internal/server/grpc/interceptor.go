package grpc

import (
	"context"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const sessionKey ctxKey = "session"

// protectedMethods require a valid access_token.
var protectedMethods = map[string]bool{
	MethodWhoAmI: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if protectedMethods[info.FullMethod] {
		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AccessTokenHeaderName)
			if len(values) > 0 {
				accessToken = values[0]
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, common.MessageUnauthorized)
		}

		view, err := s.sessions.Hydrate(accessToken)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, common.MessageUnauthorized)
		}

		ctx = context.WithValue(ctx, sessionKey, view)
	}

	return handler(ctx, req)
}

// recoveryInterceptor logs a handler panic and answers codes.Internal.
func (s *GRPCServer) recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "panic while serving gRPC request", "method", info.FullMethod, "panic", r)
			resp, err = nil, status.Error(codes.Internal, common.MessageInternal)
		}
	}()
	return handler(ctx, req)
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	code := status.Code(err)
	s.metrics.GRPCRequest(info.FullMethod, code.String())
	if code == codes.Internal {
		s.logger.Warn(ctx, "gRPC request failed", "method", info.FullMethod)
	}
	return resp, err
}

func sessionFromContext(ctx context.Context) *auth.SessionView {
	view, _ := ctx.Value(sessionKey).(*auth.SessionView)
	return view
}
