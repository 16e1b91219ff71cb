package token

import (
	"encoding/base64"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testKey = []byte("test-signing-key-not-verified-client-side")

func mintToken(t *testing.T, claims gjwt.MapClaims) string {
	t.Helper()
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func TestIsExpiredPastExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	in := NewInspector(Config{Now: fixedClock(now)})

	raw := mintToken(t, gjwt.MapClaims{"sub": "u-1", "exp": now.Unix() - 10})
	if !in.IsExpired(raw) {
		t.Fatal("expected token with exp = now-10 to be expired")
	}
}

func TestIsExpiredFutureExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	in := NewInspector(Config{Now: fixedClock(now)})

	raw := mintToken(t, gjwt.MapClaims{"sub": "u-1", "exp": now.Unix() + 1})
	if in.IsExpired(raw) {
		t.Fatal("expected token with exp in the future to be valid")
	}
}

func TestIsExpiredExactlyNow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	in := NewInspector(Config{Now: fixedClock(now)})

	raw := mintToken(t, gjwt.MapClaims{"exp": now.Unix()})
	if !in.IsExpired(raw) {
		t.Fatal("expected token expiring exactly now to be expired")
	}
}

func TestIsExpiredFailSafeOnBadInput(t *testing.T) {
	in := NewInspector(Config{})
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	noExp := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u-1"}`))
	stringExp := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":"tomorrow"}`))
	garbage := base64.RawURLEncoding.EncodeToString([]byte(`not json`))

	cases := map[string]string{
		"empty":          "",
		"single segment": "abc",
		"two segments":   header + "." + noExp,
		"bad base64":     header + ".%%%." + "sig",
		"bad json":       header + "." + garbage + ".sig",
		"missing exp":    header + "." + noExp + ".sig",
		"string exp":     header + "." + stringExp + ".sig",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if !in.IsExpired(raw) {
				t.Fatalf("expected %q to be treated as expired", raw)
			}
		})
	}
}

func TestIsExpiredIgnoresSignature(t *testing.T) {
	now := time.Now()
	raw := mintToken(t, gjwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	tampered := raw[:len(raw)-4] + "AAAA"

	if IsExpired(tampered) {
		t.Fatal("signature must not influence expiry inspection")
	}
}

func TestLeewayExpiresEarly(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	in := NewInspector(Config{Now: fixedClock(now), Leeway: 30 * time.Second})

	raw := mintToken(t, gjwt.MapClaims{"exp": now.Add(20 * time.Second).Unix()})
	if !in.IsExpired(raw) {
		t.Fatal("expected token inside leeway window to be expired")
	}

	raw = mintToken(t, gjwt.MapClaims{"exp": now.Add(time.Minute).Unix()})
	if in.IsExpired(raw) {
		t.Fatal("expected token outside leeway window to be valid")
	}
}

func TestClaimsExposeSubjectAndExpiry(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)
	raw := mintToken(t, gjwt.MapClaims{"sub": "user-42", "exp": exp.Unix()})

	claims, err := NewInspector(Config{}).Claims(raw)
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("expected subject user-42, got %q", claims.Subject)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("expected exp %v, got %v", exp, claims.ExpiresAt)
	}
}

func TestIsExpiredIgnoresHeaderContents(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	in := NewInspector(Config{Now: fixedClock(now)})
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u-1","exp":4102444800}`))

	headers := map[string]string{
		"no alg":      `{"typ":"JWT"}`,
		"unknown alg": `{"alg":"XX999"}`,
		"bad json":    `not json`,
	}
	for name, h := range headers {
		t.Run(name, func(t *testing.T) {
			raw := base64.RawURLEncoding.EncodeToString([]byte(h)) + "." + payload + ".sig"
			if in.IsExpired(raw) {
				t.Fatalf("token with future exp reported expired (header %s)", h)
			}
		})
	}
}
