package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrEmptySubject is returned by Issue when no subject is given. It signals a
// programming error and is not retryable.
var ErrEmptySubject = errors.New("token subject must be a non-empty string")

var reservedClaims = map[string]struct{}{"sub": {}, "exp": {}, "iat": {}}

// TokenConfig configures a TokenCodec. Now defaults to time.Now.
type TokenConfig struct {
	Secret          []byte
	Algorithm       string
	DefaultLifetime time.Duration
	Now             func() time.Time
}

// Claims is the verified content of a token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Extra     map[string]any
}

// TokenCodec issues and verifies HMAC-signed JWTs. It holds no mutable state.
type TokenCodec struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenCodec builds a codec from cfg.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret required")
	}
	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("token: unsupported algorithm %q", cfg.Algorithm)
	}
	if cfg.DefaultLifetime <= 0 {
		return nil, errors.New("token: default lifetime must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{secret: cfg.Secret, method: method, lifetime: cfg.DefaultLifetime, now: now}, nil
}

type issueOptions struct {
	lifetime time.Duration
	extra    map[string]any
}

// IssueOption customises a single Issue call.
type IssueOption func(*issueOptions)

// WithLifetime overrides the default lifetime. Negative values produce an
// already expired token.
func WithLifetime(d time.Duration) IssueOption {
	return func(o *issueOptions) { o.lifetime = d }
}

// WithClaims adds opaque claims. sub, exp and iat are ignored.
func WithClaims(extra map[string]any) IssueOption {
	return func(o *issueOptions) { o.extra = extra }
}

// Issue signs a token for subject expiring at now + lifetime.
func (c *TokenCodec) Issue(subject string, opts ...IssueOption) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrEmptySubject
	}

	o := issueOptions{lifetime: c.lifetime}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lifetime == 0 {
		o.lifetime = c.lifetime
	}

	now := c.now().UTC()
	expiresAt := now.Add(o.lifetime)

	claims := jwt.MapClaims{}
	for k, v := range o.extra {
		if _, reserved := reservedClaims[k]; reserved {
			continue
		}
		claims[k] = v
	}
	claims["sub"] = subject
	claims["exp"] = jwt.NewNumericDate(expiresAt)
	claims["iat"] = jwt.NewNumericDate(now)

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry. Failures wrap
// ErrExpiredToken when only the expiry check failed, ErrMalformedToken
// otherwise.
func (c *TokenCodec) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != c.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		// golang-jwt checks the signature before any time-based claim, so an
		// expiry error implies a good signature.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrMalformedToken)
	}

	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}

	out := &Claims{Subject: subject, Extra: map[string]any{}}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time.UTC()
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time.UTC()
	}
	for k, v := range mapClaims {
		if _, reserved := reservedClaims[k]; !reserved {
			out.Extra[k] = v
		}
	}
	return out, nil
}
