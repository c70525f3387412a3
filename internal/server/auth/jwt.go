// Package auth contains the credential primitives of the server: bcrypt
// password hashing and HS256 session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenValidity is the lifetime of a session token.
const DefaultTokenValidity = 7 * 24 * time.Hour

// Claims is the token payload: the standard claims (sub = user id, iat, exp)
// plus the account email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Identity is what a verified token asserts.
type Identity struct {
	UserID string
	Email  string
}

// TokenIssuer mints and verifies session tokens. The signing key is fixed at
// construction and never changes afterwards.
type TokenIssuer struct {
	secretKey []byte
	validity  time.Duration
	now       func() time.Time
}

// NewTokenIssuer returns an issuer signing with secretKey. A non-positive
// validity falls back to DefaultTokenValidity.
func NewTokenIssuer(secretKey []byte, validity time.Duration) *TokenIssuer {
	if validity <= 0 {
		validity = DefaultTokenValidity
	}
	key := make([]byte, len(secretKey))
	copy(key, secretKey)
	return &TokenIssuer{secretKey: key, validity: validity, now: time.Now}
}

// Issue signs a token for the given user.
func (i *TokenIssuer) Issue(userID, email string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		Email: email,
	})

	tokenString, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature and expiry and returns the identity inside.
// It fails with common.ErrTokenExpired for an expired token and with
// common.ErrInvalidToken for anything else.
func (i *TokenIssuer) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}
