package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gophauth.AuthService"

// Method names of the AuthService.
const (
	MethodSignup                     = "Signup"
	MethodLogin                      = "Login"
	MethodMe                         = "Me"
	MethodListUsers                  = "ListUsers"
	MethodDeleteAccount              = "DeleteAccount"
	MethodDeleteAccountByCredentials = "DeleteAccountByCredentials"
	MethodUpdateAccount              = "UpdateAccount"
	MethodUpdateAccountByCredentials = "UpdateAccountByCredentials"
	MethodEnable2FA                  = "Enable2FA"
	MethodVerify2FA                  = "Verify2FA"
	MethodDisable2FA                 = "Disable2FA"
)

// FullMethod returns the "/service/method" path used by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AuthServiceServer is implemented by the gRPC endpoint.
type AuthServiceServer interface {
	Signup(context.Context, *SignupRequest) (*SessionResponse, error)
	Login(context.Context, *LoginRequest) (*SessionResponse, error)
	Me(context.Context, *Empty) (*MeResponse, error)
	ListUsers(context.Context, *Empty) (*ListUsersResponse, error)
	DeleteAccount(context.Context, *DeleteAccountRequest) (*DeleteResponse, error)
	DeleteAccountByCredentials(context.Context, *CredentialsRequest) (*DeleteResponse, error)
	UpdateAccount(context.Context, *UpdateAccountRequest) (*UpdateResponse, error)
	UpdateAccountByCredentials(context.Context, *UpdateByCredentialsRequest) (*UpdateResponse, error)
	Enable2FA(context.Context, *CredentialsRequest) (*Enable2FAResponse, error)
	Verify2FA(context.Context, *Verify2FARequest) (*MessageResponse, error)
	Disable2FA(context.Context, *Disable2FARequest) (*MessageResponse, error)
}

// AuthServiceDesc describes the service for grpc.Server.RegisterService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodSignup, AuthServiceServer.Signup),
		unary(MethodLogin, AuthServiceServer.Login),
		unary(MethodMe, AuthServiceServer.Me),
		unary(MethodListUsers, AuthServiceServer.ListUsers),
		unary(MethodDeleteAccount, AuthServiceServer.DeleteAccount),
		unary(MethodDeleteAccountByCredentials, AuthServiceServer.DeleteAccountByCredentials),
		unary(MethodUpdateAccount, AuthServiceServer.UpdateAccount),
		unary(MethodUpdateAccountByCredentials, AuthServiceServer.UpdateAccountByCredentials),
		unary(MethodEnable2FA, AuthServiceServer.Enable2FA),
		unary(MethodVerify2FA, AuthServiceServer.Verify2FA),
		unary(MethodDisable2FA, AuthServiceServer.Disable2FA),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/auth.json",
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	full := FullMethod(method)
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServiceServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// AuthServiceClient is the client API for AuthService.
type AuthServiceClient interface {
	Signup(ctx context.Context, in *SignupRequest, opts ...grpc.CallOption) (*SessionResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*SessionResponse, error)
	Me(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*MeResponse, error)
	ListUsers(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListUsersResponse, error)
	DeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	DeleteAccountByCredentials(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	UpdateAccount(ctx context.Context, in *UpdateAccountRequest, opts ...grpc.CallOption) (*UpdateResponse, error)
	UpdateAccountByCredentials(ctx context.Context, in *UpdateByCredentialsRequest, opts ...grpc.CallOption) (*UpdateResponse, error)
	Enable2FA(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*Enable2FAResponse, error)
	Verify2FA(ctx context.Context, in *Verify2FARequest, opts ...grpc.CallOption) (*MessageResponse, error)
	Disable2FA(ctx context.Context, in *Disable2FARequest, opts ...grpc.CallOption) (*MessageResponse, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthServiceClient returns a client that speaks the JSON codec over cc.
func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authServiceClient) Signup(ctx context.Context, in *SignupRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, MethodSignup, in, opts)
}

func (c *authServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *authServiceClient) Me(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*MeResponse, error) {
	return invoke[MeResponse](ctx, c.cc, MethodMe, in, opts)
}

func (c *authServiceClient) ListUsers(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	return invoke[ListUsersResponse](ctx, c.cc, MethodListUsers, in, opts)
}

func (c *authServiceClient) DeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, MethodDeleteAccount, in, opts)
}

func (c *authServiceClient) DeleteAccountByCredentials(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, MethodDeleteAccountByCredentials, in, opts)
}

func (c *authServiceClient) UpdateAccount(ctx context.Context, in *UpdateAccountRequest, opts ...grpc.CallOption) (*UpdateResponse, error) {
	return invoke[UpdateResponse](ctx, c.cc, MethodUpdateAccount, in, opts)
}

func (c *authServiceClient) UpdateAccountByCredentials(ctx context.Context, in *UpdateByCredentialsRequest, opts ...grpc.CallOption) (*UpdateResponse, error) {
	return invoke[UpdateResponse](ctx, c.cc, MethodUpdateAccountByCredentials, in, opts)
}

func (c *authServiceClient) Enable2FA(ctx context.Context, in *CredentialsRequest, opts ...grpc.CallOption) (*Enable2FAResponse, error) {
	return invoke[Enable2FAResponse](ctx, c.cc, MethodEnable2FA, in, opts)
}

func (c *authServiceClient) Verify2FA(ctx context.Context, in *Verify2FARequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodVerify2FA, in, opts)
}

func (c *authServiceClient) Disable2FA(ctx context.Context, in *Disable2FARequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodDisable2FA, in, opts)
}
