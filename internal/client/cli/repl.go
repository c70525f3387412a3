package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App implements it.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Me(ctx context.Context) error
	Users(ctx context.Context) error
	Enable2FA(ctx context.Context) error
	Verify2FA(ctx context.Context) error
	Disable2FA(ctx context.Context) error
	Update(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from r until EOF, "exit"/"quit" or ctx is done.
//
//	Always:
//	  - help                  show available commands
//	  - signup                create an account and log in
//	  - login                 authenticate (asks for a 2FA code when needed)
//	  - users                 list all accounts
//	  - enable2fa             generate a 2FA secret
//	  - verify2fa             confirm the secret with a code
//	  - disable2fa            turn 2FA off
//	  - update                change email or password
//	  - delete [id]           delete an account
//	  - exit | quit           leave the program
//
//	Logged in:
//	  - me                    show the session's identity
//	  - logout                forget the session
//
// A failing command prints its error and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "gophauth %s > ", statusFn())

		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: me, users, update, delete [id], enable2fa, verify2fa, disable2fa, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: signup, login, users, update, delete, enable2fa, verify2fa, disable2fa, exit")
			}

		case "signup":
			cmdErr = a.Signup(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "me":
			cmdErr = a.Me(ctx)

		case "users":
			cmdErr = a.Users(ctx)

		case "enable2fa":
			cmdErr = a.Enable2FA(ctx)

		case "verify2fa":
			cmdErr = a.Verify2FA(ctx)

		case "disable2fa":
			cmdErr = a.Disable2FA(ctx)

		case "update":
			cmdErr = a.Update(ctx)

		case "delete":
			var id string
			if len(args) > 0 {
				id = args[0]
			}
			cmdErr = a.Delete(ctx, id)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", cmdErr)
		}
	}
}
