package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

// AuthClient is the part of client.GRPCClient the commands use.
type AuthClient interface {
	Signup(ctx context.Context, email string, password []byte) (*api.SessionResponse, error)
	Login(ctx context.Context, email string, password []byte, code string) (*api.SessionResponse, error)
	Me(ctx context.Context) (*api.MeResponse, error)
	ListUsers(ctx context.Context) ([]api.User, error)
	DeleteAccount(ctx context.Context, id string) (*api.DeleteResponse, error)
	DeleteAccountByCredentials(ctx context.Context, email string, password []byte) (*api.DeleteResponse, error)
	UpdateAccount(ctx context.Context, newEmail string, newPassword []byte) (*api.UpdateResponse, error)
	UpdateAccountByCredentials(ctx context.Context, email string, password []byte, newEmail string, newPassword []byte) (*api.UpdateResponse, error)
	Enable2FA(ctx context.Context, email string, password []byte) (*api.Enable2FAResponse, error)
	Verify2FA(ctx context.Context, email, code string) (string, error)
	Disable2FA(ctx context.Context, email string, password []byte, code string) (string, error)
	LoggedInAs() string
	Logout()
	Close() error
}

type App struct {
	client AuthClient
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(apiClient, os.Stdin, os.Stdout), nil
}

func newApp(c AuthClient, in io.Reader, out io.Writer) *App {
	return &App{client: c, reader: bufio.NewReader(in), out: out}
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedInAs() != ""
}

func (a *App) status() string {
	if email := a.client.LoggedInAs(); email != "" {
		return email
	}
	return "guest"
}

// Run blocks in the REPL until the user exits, input ends or ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.client.Close()

	fmt.Fprintln(a.out, "gophauth CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader, a.out)
	return nil
}
