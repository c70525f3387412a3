package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotConfirmed = errors.New("not confirmed")

func (a *App) askCredentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Signup creates an account and keeps the returned session.
func (a *App) Signup(ctx context.Context) error {
	email, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.client.Signup(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed up as %s (id %s)\n", s.User.Email, s.User.ID)
	return nil
}

// Login authenticates with email and password. When the account has 2FA
// enabled the server rejects the first attempt and the user is asked for a
// code.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.client.Login(ctx, email, password, "")
	if errors.Is(err, common.ErrTwoFactorRequired) {
		code, cerr := getSimpleText(a.reader, "Enter 2FA code", a.out)
		if cerr != nil {
			return cerr
		}
		s, err = a.client.Login(ctx, email, password, code)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", s.User.Email)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	me, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User ID: %s\nEmail:   %s\n", me.UserID, me.Email)
	return nil
}

func (a *App) Users(ctx context.Context) error {
	users, err := a.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "No users")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\t2FA\tCREATED")
	for _, u := range users {
		twoFactor := "off"
		if u.TwoFactorEnabled {
			twoFactor = "on"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Email, twoFactor, u.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// Enable2FA generates a new secret. The QR code can be written to a PNG file
// for scanning with an authenticator app.
func (a *App) Enable2FA(ctx context.Context) error {
	email, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := a.client.Enable2FA(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resp.Message)
	fmt.Fprintf(a.out, "Secret: %s\n", resp.Secret)
	fmt.Fprintln(a.out, "Run verify2fa with a code from your app to finish")

	path, err := getSimpleText(a.reader, "Save QR code to file (empty to skip)", a.out)
	if err != nil || path == "" {
		return err
	}
	if err := saveQRCode(path, resp.QRCode); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "QR code saved to %s\n", path)
	return nil
}

func (a *App) Verify2FA(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter 2FA code", a.out)
	if err != nil {
		return err
	}

	msg, err := a.client.Verify2FA(ctx, email, code)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Disable2FA(ctx context.Context) error {
	email, password, err := a.askCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	code, err := getSimpleText(a.reader, "Enter 2FA code", a.out)
	if err != nil {
		return err
	}

	msg, err := a.client.Disable2FA(ctx, email, password, code)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Update changes the session's account when logged in, otherwise the account
// identified by the current email and password. Empty answers keep the
// current value.
func (a *App) Update(ctx context.Context) error {
	var (
		email    string
		password []byte
	)
	if !a.isLoggedIn() {
		var err error
		email, password, err = a.askCredentials()
		if err != nil {
			return err
		}
		defer common.WipeByteArray(password)
	}

	newEmail, err := getSimpleText(a.reader, "New email (empty to keep)", a.out)
	if err != nil {
		return err
	}
	newPassword, err := getPassword("New password (empty to keep)", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	if a.isLoggedIn() {
		resp, err := a.client.UpdateAccount(ctx, newEmail, newPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s (%s)\n", resp.Message, resp.User.Email)
		return nil
	}

	resp, err := a.client.UpdateAccountByCredentials(ctx, email, password, newEmail, newPassword)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n", resp.Message, resp.User.Email)
	return nil
}

// Delete removes the account with id, the session's own account after a
// confirmation, or, without a session, the account matching the entered
// credentials.
func (a *App) Delete(ctx context.Context, id string) error {
	if !a.isLoggedIn() {
		email, password, err := a.askCredentials()
		if err != nil {
			return err
		}
		defer common.WipeByteArray(password)

		resp, err := a.client.DeleteAccountByCredentials(ctx, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, resp.Message)
		return nil
	}

	if id == "" {
		answer, err := getSimpleText(a.reader, "Delete your account? Type 'yes' to confirm", a.out)
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "yes") {
			return errNotConfirmed
		}
	}

	resp, err := a.client.DeleteAccount(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	a.client.Logout()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// saveQRCode writes the PNG carried by a "data:image/png;base64," URI.
func saveQRCode(path, dataURI string) error {
	_, payload, found := strings.Cut(dataURI, ";base64,")
	if !found {
		return errors.New("unexpected QR code format")
	}
	png, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("decode QR code: %w", err)
	}
	return os.WriteFile(path, png, 0o600)
}
