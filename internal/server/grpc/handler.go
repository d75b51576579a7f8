package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	id, err := s.authenticator.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	token, expires, err := s.sessions.Issue(*id)
	if err != nil {
		s.logger.Error(ctx, "issuing session token failed", "account_id", id.ID, "error", err)
		return nil, toStatus(common.ErrorInternal)
	}

	return &LoginResponse{User: *id, AccessToken: token, ExpiresAt: expires}, nil
}

func (s *GRPCServer) RegisterDoctor(ctx context.Context, req *RegisterDoctorRequest) (*RegisterDoctorResponse, error) {
	reg, err := s.provisioner.Register(ctx, services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return &RegisterDoctorResponse{Account: reg.Account, Profile: reg.Profile}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *WhoAmIRequest) (*WhoAmIResponse, error) {
	view := sessionFromContext(ctx)
	if view == nil {
		return nil, status.Error(codes.Unauthenticated, common.MessageUnauthorized)
	}
	return &WhoAmIResponse{ID: view.ID, Role: view.Role, ExpiresAt: view.ExpiresAt}, nil
}

// toStatus maps core errors to gRPC codes carrying the same messages as
// the HTTP API.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrMissingCredentials):
		return status.Error(codes.InvalidArgument, common.MessageMissingCredentials)
	case errors.Is(err, common.ErrPasswordTooLong):
		return status.Error(codes.InvalidArgument, common.MessagePasswordTooLong)
	case errors.Is(err, common.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, common.MessageFieldsRequired)
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.MessageInvalidCredentials)
	case errors.Is(err, common.ErrDuplicateAccount):
		return status.Error(codes.AlreadyExists, common.MessageDoctorExists)
	default:
		return status.Error(codes.Internal, common.MessageInternal)
	}
}
