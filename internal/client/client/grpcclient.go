package client

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type GRPCClient struct {
	timeout time.Duration
	conn    *grpc.ClientConn
	client  api.AuthServiceClient

	mu          sync.RWMutex
	accessToken string
	email       string
}

// NewGRPCClient creates a client for endpointURL. The connection is
// established lazily on the first call. A positive timeout bounds each call.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{timeout: timeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewAuthServiceClient(conn)
	return c, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, common.BearerPrefix+token)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := c.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *GRPCClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *GRPCClient) setSession(token, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
	c.email = email
}

// LoggedInAs returns the email of the current session, or "" when there is none.
func (c *GRPCClient) LoggedInAs() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.email
}

// Logout forgets the session token. Tokens are stateless, so nothing is sent
// to the server.
func (c *GRPCClient) Logout() {
	c.setSession("", "")
}

func (c *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *GRPCClient) Signup(ctx context.Context, email string, password []byte) (*api.SessionResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Signup(ctx, &api.SignupRequest{Email: email, Password: string(password)})
	if err != nil {
		return nil, mapError(err)
	}
	c.setSession(resp.AccessToken, resp.User.Email)
	return resp, nil
}

func (c *GRPCClient) Login(ctx context.Context, email string, password []byte, code string) (*api.SessionResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Login(ctx, &api.LoginRequest{Email: email, Password: string(password), TwoFactorCode: code})
	if err != nil {
		return nil, mapError(err)
	}
	c.setSession(resp.AccessToken, resp.User.Email)
	return resp, nil
}

func (c *GRPCClient) Me(ctx context.Context) (*api.MeResponse, error) {
	if c.token() == "" {
		return nil, ErrNotLoggedIn
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Me(ctx, &api.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (c *GRPCClient) ListUsers(ctx context.Context) ([]api.User, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.ListUsers(ctx, &api.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Users, nil
}

// DeleteAccount deletes the account with id, or the session's own account
// when id is empty. Deleting the own account ends the session.
func (c *GRPCClient) DeleteAccount(ctx context.Context, id string) (*api.DeleteResponse, error) {
	if c.token() == "" {
		return nil, ErrNotLoggedIn
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.DeleteAccount(ctx, &api.DeleteAccountRequest{ID: id})
	if err != nil {
		return nil, mapError(err)
	}
	if id == "" {
		c.Logout()
	}
	return resp, nil
}

func (c *GRPCClient) DeleteAccountByCredentials(ctx context.Context, email string, password []byte) (*api.DeleteResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.DeleteAccountByCredentials(ctx, &api.CredentialsRequest{Email: email, Password: string(password)})
	if err != nil {
		return nil, mapError(err)
	}
	if resp.Email != "" && resp.Email == c.LoggedInAs() {
		c.Logout()
	}
	return resp, nil
}

// UpdateAccount changes the session's account. Empty values are left unchanged.
func (c *GRPCClient) UpdateAccount(ctx context.Context, newEmail string, newPassword []byte) (*api.UpdateResponse, error) {
	token := c.token()
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.UpdateAccount(ctx, &api.UpdateAccountRequest{Email: newEmail, Password: string(newPassword)})
	if err != nil {
		return nil, mapError(err)
	}
	c.setSession(token, resp.User.Email)
	return resp, nil
}

func (c *GRPCClient) UpdateAccountByCredentials(ctx context.Context, email string, password []byte, newEmail string, newPassword []byte) (*api.UpdateResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.UpdateAccountByCredentials(ctx, &api.UpdateByCredentialsRequest{
		CurrentEmail:    email,
		CurrentPassword: string(password),
		NewEmail:        newEmail,
		NewPassword:     string(newPassword),
	})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (c *GRPCClient) Enable2FA(ctx context.Context, email string, password []byte) (*api.Enable2FAResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Enable2FA(ctx, &api.CredentialsRequest{Email: email, Password: string(password)})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (c *GRPCClient) Verify2FA(ctx context.Context, email, code string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Verify2FA(ctx, &api.Verify2FARequest{Email: email, Code: code})
	if err != nil {
		return "", mapError(err)
	}
	return resp.Message, nil
}

func (c *GRPCClient) Disable2FA(ctx context.Context, email string, password []byte, code string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Disable2FA(ctx, &api.Disable2FARequest{Email: email, Password: string(password), Code: code})
	if err != nil {
		return "", mapError(err)
	}
	return resp.Message, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
