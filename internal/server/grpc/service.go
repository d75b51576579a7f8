package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"google.golang.org/grpc"
)

const (
	ServiceName = "rxauth.v1.AuthService"

	MethodLogin          = "/" + ServiceName + "/Login"
	MethodRegisterDoctor = "/" + ServiceName + "/RegisterDoctor"
	MethodWhoAmI         = "/" + ServiceName + "/WhoAmI"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User        models.Identity `json:"user"`
	AccessToken string          `json:"accessToken"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

type RegisterDoctorRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterDoctorResponse struct {
	Account models.AccountView         `json:"account"`
	Profile models.PractitionerProfile `json:"profile"`
}

type WhoAmIRequest struct{}

type WhoAmIResponse struct {
	ID        string      `json:"id"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// AuthServiceServer is implemented by GRPCServer.
type AuthServiceServer interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	RegisterDoctor(ctx context.Context, req *RegisterDoctorRequest) (*RegisterDoctorResponse, error)
	WhoAmI(ctx context.Context, req *WhoAmIRequest) (*WhoAmIResponse, error)
}

// The method handlers answer undecodable requests with the same stable
// messages as malformed HTTP bodies.
func loginHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LoginRequest)
	if err := dec(in); err != nil {
		return nil, toStatus(common.ErrMissingCredentials)
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodLogin}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).Login(ctx, req.(*LoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func registerDoctorHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RegisterDoctorRequest)
	if err := dec(in); err != nil {
		return nil, toStatus(common.ErrInvalidInput)
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).RegisterDoctor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodRegisterDoctor}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).RegisterDoctor(ctx, req.(*RegisterDoctorRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func whoAmIHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(WhoAmIRequest)
	if err := dec(in); err != nil {
		return nil, toStatus(common.ErrInvalidInput)
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodWhoAmI}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).WhoAmI(ctx, req.(*WhoAmIRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AuthServiceDesc describes rxauth.v1.AuthService for grpc.Server.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: loginHandler},
		{MethodName: "RegisterDoctor", Handler: registerDoctorHandler},
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// AuthServiceClient calls rxauth.v1.AuthService using the JSON codec.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func (c *AuthServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *AuthServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	out := new(LoginResponse)
	if err := c.invoke(ctx, MethodLogin, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthServiceClient) RegisterDoctor(ctx context.Context, in *RegisterDoctorRequest, opts ...grpc.CallOption) (*RegisterDoctorResponse, error) {
	out := new(RegisterDoctorResponse)
	if err := c.invoke(ctx, MethodRegisterDoctor, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// WhoAmI requires the access_token metadata key.
func (c *AuthServiceClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*WhoAmIResponse, error) {
	out := new(WhoAmIResponse)
	if err := c.invoke(ctx, MethodWhoAmI, &WhoAmIRequest{}, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
