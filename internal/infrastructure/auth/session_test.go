package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/expensa/internal/domain"
	domerrors "github.com/amirhosseinghanipour/expensa/internal/domain/errors"
)

const testSecret = "test-secret-for-session-signer-0123456789"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestSigner(t *testing.T, clock *fakeClock) *SessionSigner {
	t.Helper()
	key, err := NewSigningKey(testSecret)
	require.NoError(t, err)
	s, err := NewSessionSigner(SessionConfig{Key: key, TTL: 15 * time.Minute, Issuer: "expensa", Now: clock.Now}, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func testPrincipal() domain.Principal {
	return domain.Principal{
		IdentityID: domain.NewIdentityID(uuid.New()),
		Role:       domain.RoleAdministrator,
		TenantID:   domain.NewTenantID(uuid.New()),
	}
}

func TestSessionSigner_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := newTestSigner(t, clock)

	for _, role := range []domain.Role{domain.RoleAdministrator, domain.RoleMember} {
		p := testPrincipal()
		p.Role = role
		cred, err := s.Issue(p)
		require.NoError(t, err)
		assert.Equal(t, clock.t, cred.IssuedAt)
		assert.Equal(t, clock.t.Add(15*time.Minute), cred.ExpiresAt)

		clock.t = clock.t.Add(14 * time.Minute)
		got, err := s.Verify(cred.Token)
		require.NoError(t, err)
		assert.Equal(t, p, got)
		clock.t = clock.t.Add(-14 * time.Minute)
	}
}

func TestSessionSigner_Expiry(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	s := newTestSigner(t, clock)
	cred, err := s.Issue(testPrincipal())
	require.NoError(t, err)

	for _, at := range []time.Duration{15 * time.Minute, 15*time.Minute + time.Nanosecond, 16 * time.Minute, 48 * time.Hour} {
		clock.t = start.Add(at)
		_, err := s.Verify(cred.Token)
		assert.ErrorIs(t, err, domerrors.ErrTokenInvalid, "accepted at +%s", at)
	}

	clock.t = start.Add(15*time.Minute - time.Second)
	_, err = s.Verify(cred.Token)
	assert.NoError(t, err)
}

func TestSessionSigner_BitFlipRejected(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := newTestSigner(t, clock)
	cred, err := s.Issue(testPrincipal())
	require.NoError(t, err)

	raw := []byte(cred.Token)
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			tampered := make([]byte, len(raw))
			copy(tampered, raw)
			tampered[i] ^= 1 << bit
			_, err := s.Verify(string(tampered))
			if !assert.ErrorIs(t, err, domerrors.ErrTokenInvalid, "byte %d bit %d accepted", i, bit) {
				return
			}
		}
	}
}

func TestSessionSigner_RejectsForeignTokens(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestSigner(t, clock)
	p := testPrincipal()
	claims := jwt.MapClaims{
		"iss":       "expensa",
		"sub":       p.IdentityID.String(),
		"role":      "ADMINISTRATOR",
		"tenant_id": p.TenantID.String(),
		"iat":       clock.t.Unix(),
		"exp":       clock.t.Add(time.Hour).Unix(),
	}
	sign := func(m jwt.SigningMethod, key interface{}, c jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(m, c).SignedString(key)
		require.NoError(t, err)
		return tok
	}
	with := func(k string, v interface{}) jwt.MapClaims {
		c := jwt.MapClaims{}
		for ck, cv := range claims {
			c[ck] = cv
		}
		if v == nil {
			delete(c, k)
		} else {
			c[k] = v
		}
		return c
	}

	valid := sign(jwt.SigningMethodHS256, []byte(testSecret), claims)
	_, err := s.Verify(valid)
	require.NoError(t, err, "control token should verify")

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-jwt",
		"two segments":   strings.Join(strings.Split(valid, ".")[:2], "."),
		"wrong key":      sign(jwt.SigningMethodHS256, []byte("another-secret-that-is-long-enough-000"), claims),
		"alg HS512":      sign(jwt.SigningMethodHS512, []byte(testSecret), claims),
		"alg none":       sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claims),
		"wrong issuer":   sign(jwt.SigningMethodHS256, []byte(testSecret), with("iss", "someone-else")),
		"no exp":         sign(jwt.SigningMethodHS256, []byte(testSecret), with("exp", nil)),
		"unknown role":   sign(jwt.SigningMethodHS256, []byte(testSecret), with("role", "ADMIN")),
		"bad subject":    sign(jwt.SigningMethodHS256, []byte(testSecret), with("sub", "dummy-admin-id")),
		"bad tenant id":  sign(jwt.SigningMethodHS256, []byte(testSecret), with("tenant_id", "dummy-company-id")),
		"missing tenant": sign(jwt.SigningMethodHS256, []byte(testSecret), with("tenant_id", nil)),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(tok)
			assert.ErrorIs(t, err, domerrors.ErrTokenInvalid)
		})
	}
}

func TestSessionSigner_IssueRejectsUnknownRole(t *testing.T) {
	s := newTestSigner(t, &fakeClock{t: time.Now()})
	p := testPrincipal()
	p.Role = domain.RoleUnknown
	_, err := s.Issue(p)
	assert.Error(t, err)
}

func TestNewSessionSigner_RequiresKey(t *testing.T) {
	_, err := NewSessionSigner(SessionConfig{}, zerolog.Nop())
	assert.Error(t, err)

	key, err := NewSigningKey(testSecret)
	require.NoError(t, err)
	s, err := NewSessionSigner(SessionConfig{Key: key}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionTTL, s.TTL())
}
