// Package twofactor implements TOTP enrollment and verification: secret
// generation, the scannable provisioning code, and code checks over a
// tolerance window.
package twofactor

import (
	"bytes"
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Parameters of the provisioning URI. Authenticator apps rely on them, so
// they must not change once users have enrolled.
const (
	SecretSize = 32
	Digits     = otp.DigitsSix
	Period     = 30
	Skew       = 2
	Algorithm  = otp.AlgorithmSHA1

	// QRCodeSize is the side of the rendered PNG in pixels.
	QRCodeSize = 256
)

// DefaultIssuer labels the account inside authenticator apps.
const DefaultIssuer = "Login App"

// Result is the outcome of a code check.
type Result int

const (
	Invalid Result = iota
	Valid
)

func (r Result) String() string {
	if r == Valid {
		return "valid"
	}
	return "invalid"
}

// Enrollment is what a user needs to configure an authenticator app.
type Enrollment struct {
	// URI is the otpauth://totp/... provisioning URI.
	URI string
	// QRCode is URI rendered as a PNG QR code in a data URI.
	QRCode string
}

// Engine generates secrets and checks codes. It holds no per-user state and
// is safe for concurrent use.
type Engine struct {
	issuer string
	now    func() time.Time
	rand   io.Reader
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand replaces crypto/rand as the secret source.
func WithRand(r io.Reader) Option {
	return func(e *Engine) { e.rand = r }
}

func NewEngine(issuer string, opts ...Option) *Engine {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	e := &Engine{issuer: issuer, now: time.Now, rand: rand.Reader}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns SecretSize random bytes, base32 encoded.
func (e *Engine) GenerateSecret() (string, error) {
	raw := make([]byte, SecretSize)
	if _, err := io.ReadFull(e.rand, raw); err != nil {
		return "", fmt.Errorf("read random secret: %w", err)
	}
	return secretEncoding.EncodeToString(raw), nil
}

// ProvisioningURI builds the otpauth URI for email and secret.
func (e *Engine) ProvisioningURI(email, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", e.issuer)
	v.Set("algorithm", Algorithm.String())
	v.Set("digits", Digits.String())
	v.Set("period", strconv.Itoa(Period))

	return "otpauth://totp/" + url.PathEscape(email) + "?" + v.Encode()
}

// EnrollmentCode renders the provisioning URI as a QR code data URI.
func (e *Engine) EnrollmentCode(email, secret string) (*Enrollment, error) {
	uri := e.ProvisioningURI(email, secret)

	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse provisioning uri: %w", err)
	}

	img, err := key.Image(QRCodeSize, QRCodeSize)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}

	return &Enrollment{
		URI:    uri,
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Verify checks code against secret within ±Skew periods of now. Any
// library failure (bad length, undecodable secret) counts as Invalid.
func (e *Engine) Verify(code, secret string) Result {
	if secret == "" || code == "" {
		return Invalid
	}

	ok, err := totp.ValidateCustom(code, secret, e.now().UTC(), validateOpts)
	if err != nil || !ok {
		return Invalid
	}
	return Valid
}

// Code returns the code for secret at t. Clients and tests use it to
// produce what an authenticator app would show.
func Code(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t.UTC(), validateOpts)
}

var validateOpts = totp.ValidateOpts{
	Period:    Period,
	Skew:      Skew,
	Digits:    Digits,
	Algorithm: Algorithm,
}
