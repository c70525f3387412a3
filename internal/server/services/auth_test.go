package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/twofactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// spyRepo counts writes and can inject failures.
type spyRepo struct {
	users.Repository
	writes  int
	findErr error
}

func (r *spyRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.Repository.FindByEmail(ctx, email)
}

func (r *spyRepo) Create(ctx context.Context, email, hash string) (*models.User, error) {
	r.writes++
	return r.Repository.Create(ctx, email, hash)
}

func (r *spyRepo) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	r.writes++
	return r.Repository.Update(ctx, id, upd)
}

func (r *spyRepo) UpdateTwoFactor(ctx context.Context, id string, secret *string, enabled bool) (*models.User, error) {
	r.writes++
	return r.Repository.UpdateTwoFactor(ctx, id, secret, enabled)
}

func (r *spyRepo) Delete(ctx context.Context, id string) error {
	r.writes++
	return r.Repository.Delete(ctx, id)
}

type fixture struct {
	svc   *AuthService
	repo  *spyRepo
	clock *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 10, 0, 15, 0, time.UTC)}
	repo := &spyRepo{Repository: users.NewMemoryRepository()}
	svc := NewAuthService(
		repo,
		auth.NewPasswordHasher(bcrypt.MinCost),
		auth.NewTokenIssuer([]byte("test-secret"), time.Hour),
		twofactor.NewEngine("Login App", twofactor.WithClock(clock.Now)),
	)
	return &fixture{svc: svc, repo: repo, clock: clock}
}

func (f *fixture) code(t *testing.T, secret string, offset time.Duration) string {
	t.Helper()
	c, err := twofactor.Code(secret, f.clock.Now().Add(offset))
	require.NoError(t, err)
	return c
}

// wrongCode returns a six-digit code that differs from every code accepted
// around the current time.
func (f *fixture) wrongCode(t *testing.T, secret string) string {
	t.Helper()
	accepted := map[string]bool{}
	for step := -twofactor.Skew; step <= twofactor.Skew; step++ {
		accepted[f.code(t, secret, time.Duration(step)*twofactor.Period*time.Second)] = true
	}
	for _, c := range []string{"000000", "111111", "222222", "333333", "444444", "555555", "666666"} {
		if !accepted[c] {
			return c
		}
	}
	t.Fatal("no wrong code found")
	return ""
}

func (f *fixture) enableTwoFactor(t *testing.T, email, password string) string {
	t.Helper()
	ctx := context.Background()
	setup, err := f.svc.Enable2FA(ctx, email, password)
	require.NoError(t, err)
	_, err = f.svc.Verify2FA(ctx, email, f.code(t, setup.Secret, 0))
	require.NoError(t, err)
	return setup.Secret
}

// --- signup / login ---

func TestSignupThenLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	s, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, s.User.ID)
	assert.Equal(t, "a@x.com", s.User.Email)

	id, err := f.svc.Authenticate(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, id.UserID)
	assert.Equal(t, "a@x.com", id.Email)

	l, err := f.svc.Login(ctx, "a@x.com", "secret123", "")
	require.NoError(t, err)
	assert.Equal(t, s.User, l.User)

	id, err = f.svc.Authenticate(ctx, l.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, id.UserID)
}

func TestSignup_StoresHashNotPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	u, err := f.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"))
	assert.Equal(t, models.TwoFactorDisabled, u.TwoFactorState())
}

func TestSignup_EmailInUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	writes := f.repo.writes

	_, err = f.svc.Signup(ctx, "a@x.com", "other-pass")
	assert.ErrorIs(t, err, common.ErrEmailInUse)
	assert.Equal(t, writes, f.repo.writes, "no write on conflict")
}

func TestSignup_LookupFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.repo.findErr = errors.New("connection reset")

	_, err := f.svc.Signup(context.Background(), "a@x.com", "secret123")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrEmailInUse)
}

func TestSignup_PasswordTooLong(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Signup(ctx, "long@x.com", strings.Repeat("p", 80))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.NotErrorIs(t, err, common.ErrorInternal)
	assert.Zero(t, f.repo.writes)

	s, err := f.svc.Signup(ctx, "long@x.com", strings.Repeat("p", 72))
	require.NoError(t, err)

	_, err = f.svc.UpdateAccount(ctx, s.User.ID, AccountUpdate{Password: ptr(strings.Repeat("p", 73))})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.NotErrorIs(t, err, common.ErrorInternal)

	_, err = f.svc.Login(ctx, "long@x.com", strings.Repeat("p", 72), "")
	assert.NoError(t, err, "password was left unchanged")
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, wrongPass := f.svc.Login(ctx, "a@x.com", "wrong-pass", "")
	_, noUser := f.svc.Login(ctx, "nobody@x.com", "secret123", "")

	assert.ErrorIs(t, wrongPass, common.ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, common.ErrInvalidCredentials)
	assert.Equal(t, wrongPass.Error(), noUser.Error())
}

func TestLogin_EmailIsExactMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "A@X.com", "secret123", "")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_PendingEnrollmentNeedsNoCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = f.svc.Enable2FA(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "a@x.com", "secret123", "")
	assert.NoError(t, err)
}

func TestLogin_TwoFactorWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	secret := f.enableTwoFactor(t, "a@x.com", "secret123")

	_, err = f.svc.Login(ctx, "a@x.com", "secret123", "")
	assert.ErrorIs(t, err, common.ErrTwoFactorRequired)

	_, err = f.svc.Login(ctx, "a@x.com", "secret123", f.code(t, secret, 0))
	assert.NoError(t, err)

	_, err = f.svc.Login(ctx, "a@x.com", "secret123", f.code(t, secret, -60*time.Second))
	assert.NoError(t, err, "two steps back is inside the window")
	_, err = f.svc.Login(ctx, "a@x.com", "secret123", f.code(t, secret, 60*time.Second))
	assert.NoError(t, err, "two steps ahead is inside the window")

	_, err = f.svc.Login(ctx, "a@x.com", "secret123", f.code(t, secret, -90*time.Second))
	assert.ErrorIs(t, err, common.ErrInvalidTwoFactorCode)
	_, err = f.svc.Login(ctx, "a@x.com", "secret123", f.code(t, secret, 90*time.Second))
	assert.ErrorIs(t, err, common.ErrInvalidTwoFactorCode)

	_, err = f.svc.Login(ctx, "a@x.com", "secret123", "12ab")
	assert.ErrorIs(t, err, common.ErrInvalidTwoFactorCode)

	_, err = f.svc.Login(ctx, "a@x.com", "wrong-pass", f.code(t, secret, 0))
	assert.ErrorIs(t, err, common.ErrInvalidCredentials, "password is checked before the code")
}

func TestAuthenticate_BadTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	parts := strings.Split(s.AccessToken, ".")
	require.Len(t, parts, 3)
	first := "A"
	if parts[2][0] == 'A' {
		first = "B"
	}
	tampered := parts[0] + "." + parts[1] + "." + first + parts[2][1:]
	_, err = f.svc.Authenticate(ctx, tampered)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = f.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

// --- 2FA ---

func TestEnable2FA(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = f.svc.Enable2FA(ctx, "a@x.com", "wrong-pass")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	setup, err := f.svc.Enable2FA(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, MsgTwoFactorGenerated, setup.Message)
	assert.NotEmpty(t, setup.Secret)
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	u, err := f.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.TwoFactorPendingVerification, u.TwoFactorState())
	assert.Equal(t, setup.Secret, u.Secret())
}

func TestVerify2FA(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = f.svc.Verify2FA(ctx, "a@x.com", "123456")
	assert.ErrorIs(t, err, common.ErrTwoFactorNotSetUp)
	_, err = f.svc.Verify2FA(ctx, "nobody@x.com", "123456")
	assert.ErrorIs(t, err, common.ErrTwoFactorNotSetUp)

	setup, err := f.svc.Enable2FA(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	writes := f.repo.writes
	_, err = f.svc.Verify2FA(ctx, "a@x.com", f.wrongCode(t, setup.Secret))
	assert.ErrorIs(t, err, common.ErrInvalidTwoFactorCode)
	assert.Equal(t, writes, f.repo.writes)

	u, err := f.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.TwoFactorPendingVerification, u.TwoFactorState())

	msg, err := f.svc.Verify2FA(ctx, "a@x.com", f.code(t, setup.Secret, 0))
	require.NoError(t, err)
	assert.Equal(t, MsgTwoFactorEnabled, msg)

	u, err = f.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.TwoFactorEnabled, u.TwoFactorState())
	assert.Equal(t, setup.Secret, u.Secret())
}

func TestDisable2FA(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = f.svc.Disable2FA(ctx, "a@x.com", "secret123", "123456")
	assert.ErrorIs(t, err, common.ErrTwoFactorNotEnabled)

	setup, err := f.svc.Enable2FA(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	_, err = f.svc.Disable2FA(ctx, "a@x.com", "secret123", f.code(t, setup.Secret, 0))
	assert.ErrorIs(t, err, common.ErrTwoFactorNotEnabled, "pending enrollment is not enabled")

	_, err = f.svc.Verify2FA(ctx, "a@x.com", f.code(t, setup.Secret, 0))
	require.NoError(t, err)
	secret := setup.Secret

	_, err = f.svc.Disable2FA(ctx, "a@x.com", "wrong-pass", f.code(t, secret, 0))
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = f.svc.Disable2FA(ctx, "a@x.com", "secret123", f.wrongCode(t, secret))
	assert.ErrorIs(t, err, common.ErrInvalidTwoFactorCode)

	u, err := f.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, u.TwoFactorEnabled, "failed disable leaves 2FA on")

	msg, err := f.svc.Disable2FA(ctx, "a@x.com", "secret123", f.code(t, secret, 0))
	require.NoError(t, err)
	assert.Equal(t, MsgTwoFactorDisabled, msg)

	u, err = f.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.TwoFactorDisabled, u.TwoFactorState())
	assert.Nil(t, u.TwoFactorSecret)

	_, err = f.svc.Login(ctx, "a@x.com", "secret123", "")
	assert.NoError(t, err)
}

func TestScenario_SignupEnableVerifyLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, "a@x.com", "secret123", "")
	require.NoError(t, err)

	setup, err := f.svc.Enable2FA(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	_, err = f.svc.Verify2FA(ctx, "a@x.com", f.code(t, setup.Secret, 0))
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "a@x.com", "secret123", "")
	assert.ErrorIs(t, err, common.ErrTwoFactorRequired)

	f.clock.Add(45 * time.Second)
	s, err := f.svc.Login(ctx, "a@x.com", "secret123", f.code(t, setup.Secret, 0))
	require.NoError(t, err)
	assert.NotEmpty(t, s.AccessToken)
}

// --- account management ---

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	_, err = f.svc.Signup(ctx, "b@x.com", "secret123")
	require.NoError(t, err)

	t.Run("email of another user", func(t *testing.T) {
		writes := f.repo.writes
		_, err := f.svc.UpdateAccount(ctx, a.User.ID, AccountUpdate{Email: ptr("b@x.com")})
		assert.ErrorIs(t, err, common.ErrEmailInUse)
		assert.Equal(t, writes, f.repo.writes)
	})

	t.Run("own email", func(t *testing.T) {
		res, err := f.svc.UpdateAccount(ctx, a.User.ID, AccountUpdate{Email: ptr("a@x.com")})
		require.NoError(t, err)
		assert.Equal(t, UserRef{ID: a.User.ID, Email: "a@x.com"}, res.User)
		assert.Equal(t, MsgAccountUpdated, res.Message)
	})

	t.Run("empty fields are ignored", func(t *testing.T) {
		writes := f.repo.writes
		res, err := f.svc.UpdateAccount(ctx, a.User.ID, AccountUpdate{Email: ptr(""), Password: ptr("")})
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", res.User.Email)
		assert.Equal(t, writes, f.repo.writes)
	})

	t.Run("email and password", func(t *testing.T) {
		res, err := f.svc.UpdateAccount(ctx, a.User.ID, AccountUpdate{Email: ptr("c@x.com"), Password: ptr("newpass1")})
		require.NoError(t, err)
		assert.Equal(t, "c@x.com", res.User.Email)

		_, err = f.svc.Login(ctx, "c@x.com", "newpass1", "")
		assert.NoError(t, err)
		_, err = f.svc.Login(ctx, "a@x.com", "secret123", "")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	})

	t.Run("deleted user", func(t *testing.T) {
		_, err := f.svc.UpdateAccount(ctx, "gone", AccountUpdate{Password: ptr("whatever")})
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestUpdateAccountByCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	_, err = f.svc.Signup(ctx, "b@x.com", "secret123")
	require.NoError(t, err)

	_, err = f.svc.UpdateAccountByCredentials(ctx, "a@x.com", "wrong-pass", AccountUpdate{Password: ptr("newpass1")})
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = f.svc.UpdateAccountByCredentials(ctx, "a@x.com", "secret123", AccountUpdate{Email: ptr("b@x.com")})
	assert.ErrorIs(t, err, common.ErrEmailInUse)

	res, err := f.svc.UpdateAccountByCredentials(ctx, "a@x.com", "secret123", AccountUpdate{Password: ptr("newpass1")})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", res.User.Email)

	_, err = f.svc.Login(ctx, "a@x.com", "newpass1", "")
	assert.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	res, err := f.svc.DeleteAccount(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Equal(t, MsgAccountDeleted, res.Message)

	_, err = f.svc.DeleteAccount(ctx, s.User.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.svc.Login(ctx, "a@x.com", "secret123", "")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	// the token outlives the account; operations on it report NotFound
	_, err = f.svc.Authenticate(ctx, s.AccessToken)
	assert.NoError(t, err)
	_, err = f.svc.UpdateAccount(ctx, s.User.ID, AccountUpdate{Password: ptr("newpass1")})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteAccountByCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = f.svc.DeleteAccountByCredentials(ctx, "a@x.com", "wrong-pass")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	res, err := f.svc.DeleteAccountByCredentials(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, &DeleteResult{Message: MsgAccountDeleted, Email: "a@x.com"}, res)

	_, err = f.svc.DeleteAccountByCredentials(ctx, "a@x.com", "secret123")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = f.svc.Signup(ctx, "a@x.com", "secret123")
	assert.NoError(t, err, "email is free again")
}

func TestListUsers_HidesSecrets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	list, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.Signup(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	_, err = f.svc.Signup(ctx, "b@x.com", "secret123")
	require.NoError(t, err)
	f.enableTwoFactor(t, "b@x.com", "secret123")

	list, err = f.svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byEmail := map[string]models.UserProjection{}
	for _, p := range list {
		byEmail[p.Email] = p
	}
	assert.False(t, byEmail["a@x.com"].TwoFactorEnabled)
	assert.True(t, byEmail["b@x.com"].TwoFactorEnabled)
}

func TestNewAuthServiceFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost

	svc := NewAuthServiceFromConfig(users.NewMemoryRepository(), cfg)
	s, err := svc.Signup(context.Background(), "a@x.com", "secret123")
	require.NoError(t, err)

	id, err := auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration).Verify(s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, id.UserID)
}

func ptr(s string) *string { return &s }
