package token

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when the token cannot be decoded.
	ErrMalformed = errors.New("token malformed")
	// ErrMissingExpiry is returned when the token carries no exp claim.
	ErrMissingExpiry = errors.New("token has no exp claim")
)

// Config controls expiry evaluation.
type Config struct {
	// Leeway treats tokens as expired this long before their exp claim so a
	// request is not sent with a token that dies in flight. Zero means exp is
	// compared exactly.
	Leeway time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Claims is the subset of access-token claims the client cares about.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Inspector decodes access tokens without verifying them.
//
// Inspector is safe for concurrent use.
type Inspector struct {
	leeway time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewInspector builds an [Inspector]. A negative leeway is clamped to zero.
func NewInspector(cfg Config) *Inspector {
	if cfg.Leeway < 0 {
		cfg.Leeway = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Inspector{
		leeway: cfg.Leeway,
		now:    cfg.Now,
		parser: jwt.NewParser(),
	}
}

// IsExpired reports whether raw must be treated as unusable. It returns true
// for empty, malformed or exp-less tokens and for tokens whose exp (minus the
// configured leeway) is not strictly in the future.
func (i *Inspector) IsExpired(raw string) bool {
	exp, err := i.ExpiresAt(raw)
	if err != nil {
		return true
	}
	return !exp.Add(-i.leeway).After(i.now())
}

// ExpiresAt returns the decoded exp claim of raw.
func (i *Inspector) ExpiresAt(raw string) (time.Time, error) {
	claims, err := i.Claims(raw)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt, nil
}

// Claims decodes the claims segment of raw. The header and signature are
// only counted, never decoded, so tokens with unusual headers still report
// their real expiry.
func (i *Inspector) Claims(raw string) (*Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}
	payload, err := i.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}

	var registered jwt.RegisteredClaims
	if err := json.Unmarshal(payload, &registered); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if registered.ExpiresAt == nil {
		return nil, ErrMissingExpiry
	}

	return &Claims{
		Subject:   registered.Subject,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}

var defaultInspector = NewInspector(Config{})

// IsExpired reports whether raw is expired using a zero-leeway inspector and
// the wall clock.
func IsExpired(raw string) bool {
	return defaultInspector.IsExpired(raw)
}
