// Package services contains server-side business logic. This file implements
// AuthService: signup, login, account management and the TOTP two-factor
// enrollment flow over the account directory.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/twofactor"
)

// Result messages returned alongside successful operations.
const (
	MsgAccountDeleted     = "Account deleted successfully"
	MsgAccountUpdated     = "Account updated successfully"
	MsgTwoFactorGenerated = "2FA secret generated. Scan QR code with Google Authenticator"
	MsgTwoFactorEnabled   = "2FA enabled successfully"
	MsgTwoFactorDisabled  = "2FA disabled successfully"
)

// UserRef is the minimal user identity returned by write operations.
type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the outcome of signup and login.
type Session struct {
	AccessToken string  `json:"access_token"`
	User        UserRef `json:"user"`
}

// AccountUpdate carries optional new credentials. Nil or empty fields are
// left unchanged.
type AccountUpdate struct {
	Email    *string
	Password *string
}

type UpdateResult struct {
	Message string  `json:"message"`
	User    UserRef `json:"user"`
}

type DeleteResult struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// TwoFactorSetup is returned by Enable2FA. QRCode is a PNG data URI of the
// provisioning URI.
type TwoFactorSetup struct {
	Message string `json:"message"`
	Secret  string `json:"secret"`
	QRCode  string `json:"qrCode"`
}

// AuthService orchestrates password hashing, TOTP and token issuance over
// a users.Repository. It keeps no mutable state of its own, so concurrent
// calls are only as ordered as the repository makes them.
type AuthService struct {
	users  users.Repository
	hasher *auth.PasswordHasher
	tokens *auth.TokenIssuer
	totp   *twofactor.Engine
}

// NewAuthService builds the service from its collaborators.
func NewAuthService(repo users.Repository, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer, totp *twofactor.Engine) *AuthService {
	return &AuthService{users: repo, hasher: hasher, tokens: tokens, totp: totp}
}

// NewAuthServiceFromConfig wires the default collaborators from cfg.
func NewAuthServiceFromConfig(repo users.Repository, cfg *config.Config) *AuthService {
	return NewAuthService(
		repo,
		auth.NewPasswordHasher(cfg.BcryptCost),
		auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
		twofactor.NewEngine(cfg.TwoFactorIssuer),
	)
}

// Signup registers a new user and opens a session for it.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*Session, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, common.ErrEmailInUse
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, internal("find user", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, hashErr(err)
	}

	u, err := s.users.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, common.ErrConstraintViolated) {
			return nil, common.ErrEmailInUse
		}
		return nil, internal("create user", err)
	}

	return s.newSession(u)
}

// Login checks credentials and, when 2FA is enabled, the TOTP code.
// totpCode may be empty when the user has no 2FA.
func (s *AuthService) Login(ctx context.Context, email, password, totpCode string) (*Session, error) {
	u, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if u.TwoFactorState() == models.TwoFactorEnabled {
		if totpCode == "" {
			return nil, common.ErrTwoFactorRequired
		}
		if s.totp.Verify(totpCode, u.Secret()) != twofactor.Valid {
			return nil, common.ErrInvalidTwoFactorCode
		}
	}

	return s.newSession(u)
}

// Authenticate verifies a bearer token and returns the identity it carries.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Identity, error) {
	return s.tokens.Verify(token)
}

// ListUsers returns every account without secrets.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.UserProjection, error) {
	list, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, internal("list users", err)
	}
	return list, nil
}

// DeleteAccount removes the account of an authenticated caller.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) (*DeleteResult, error) {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, internal("delete user", err)
	}
	return &DeleteResult{Message: MsgAccountDeleted}, nil
}

// DeleteAccountByCredentials removes an account after checking its password.
func (s *AuthService) DeleteAccountByCredentials(ctx context.Context, email, password string) (*DeleteResult, error) {
	u, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := s.users.Delete(ctx, u.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// lost a race with another delete
			return nil, common.ErrInvalidCredentials
		}
		return nil, internal("delete user", err)
	}
	return &DeleteResult{Message: MsgAccountDeleted, Email: u.Email}, nil
}

// UpdateAccount changes the email and/or password of an authenticated caller.
// Moving to an email held by another user fails with common.ErrEmailInUse;
// re-submitting the caller's own email is allowed.
func (s *AuthService) UpdateAccount(ctx context.Context, userID string, upd AccountUpdate) (*UpdateResult, error) {
	email := nonEmpty(upd.Email)
	password := nonEmpty(upd.Password)

	if email != nil {
		other, err := s.users.FindByEmail(ctx, *email)
		switch {
		case err == nil && other.ID != userID:
			return nil, common.ErrEmailInUse
		case err != nil && !errors.Is(err, common.ErrorNotFound):
			return nil, internal("find user", err)
		}
	}

	change := models.UserUpdate{Email: email}
	if password != nil {
		hash, err := s.hasher.Hash(*password)
		if err != nil {
			return nil, hashErr(err)
		}
		change.PasswordHash = &hash
	}

	var (
		u   *models.User
		err error
	)
	if change.Empty() {
		u, err = s.users.FindByID(ctx, userID)
	} else {
		u, err = s.users.Update(ctx, userID, change)
	}
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrorNotFound
	case errors.Is(err, common.ErrConstraintViolated):
		return nil, common.ErrEmailInUse
	case err != nil:
		return nil, internal("update user", err)
	}

	return &UpdateResult{Message: MsgAccountUpdated, User: UserRef{ID: u.ID, Email: u.Email}}, nil
}

// UpdateAccountByCredentials is UpdateAccount for a caller identified by
// current email and password instead of a token.
func (s *AuthService) UpdateAccountByCredentials(ctx context.Context, email, password string, upd AccountUpdate) (*UpdateResult, error) {
	u, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	res, err := s.UpdateAccount(ctx, u.ID, upd)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrInvalidCredentials
	}
	return res, err
}

// Enable2FA starts enrollment: a fresh secret is stored with 2FA still off
// and returned together with its QR code. Calling it again replaces a
// pending or enabled secret.
func (s *AuthService) Enable2FA(ctx context.Context, email, password string) (*TwoFactorSetup, error) {
	u, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		return nil, internal("generate 2fa secret", err)
	}
	enrollment, err := s.totp.EnrollmentCode(u.Email, secret)
	if err != nil {
		return nil, internal("render 2fa enrollment", err)
	}

	if _, err := s.users.UpdateTwoFactor(ctx, u.ID, &secret, false); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, internal("store 2fa secret", err)
	}

	return &TwoFactorSetup{Message: MsgTwoFactorGenerated, Secret: secret, QRCode: enrollment.QRCode}, nil
}

// Verify2FA confirms enrollment with a code from the authenticator app.
func (s *AuthService) Verify2FA(ctx context.Context, email, code string) (string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrTwoFactorNotSetUp
		}
		return "", internal("find user", err)
	}

	secret := u.Secret()
	if secret == "" {
		return "", common.ErrTwoFactorNotSetUp
	}
	if s.totp.Verify(code, secret) != twofactor.Valid {
		return "", common.ErrInvalidTwoFactorCode
	}

	if _, err := s.users.UpdateTwoFactor(ctx, u.ID, &secret, true); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrTwoFactorNotSetUp
		}
		return "", internal("enable 2fa", err)
	}
	return MsgTwoFactorEnabled, nil
}

// Disable2FA turns 2FA off. It needs both the password and a current code.
func (s *AuthService) Disable2FA(ctx context.Context, email, password, code string) (string, error) {
	u, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return "", err
	}

	if u.TwoFactorState() != models.TwoFactorEnabled {
		return "", common.ErrTwoFactorNotEnabled
	}
	if s.totp.Verify(code, u.Secret()) != twofactor.Valid {
		return "", common.ErrInvalidTwoFactorCode
	}

	if _, err := s.users.UpdateTwoFactor(ctx, u.ID, nil, false); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", internal("disable 2fa", err)
	}
	return MsgTwoFactorDisabled, nil
}

// checkCredentials returns the same error for an unknown email and a wrong
// password.
func (s *AuthService) checkCredentials(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, internal("find user", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) newSession(u *models.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, internal("issue token", err)
	}
	return &Session{AccessToken: token, User: UserRef{ID: u.ID, Email: u.Email}}, nil
}

func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, common.ErrorInternal, err)
}

// hashErr passes input errors through so callers see them as bad requests.
func hashErr(err error) error {
	if errors.Is(err, common.ErrInvalidInput) {
		return err
	}
	return internal("hash password", err)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
