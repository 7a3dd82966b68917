package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/expensa/internal/application/access"
	"github.com/amirhosseinghanipour/expensa/internal/domain"
	domerrors "github.com/amirhosseinghanipour/expensa/internal/domain/errors"
)

type stubVerifier struct {
	valid     string
	principal domain.Principal
}

func (s stubVerifier) Verify(token string) (domain.Principal, error) {
	if token != s.valid {
		return domain.Principal{}, domerrors.ErrTokenInvalid
	}
	return s.principal, nil
}

func gatedHandler(t *testing.T, verifier stubVerifier, seen *domain.Principal) http.Handler {
	t.Helper()
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := PrincipalFromContext(r.Context()); ok {
			*seen = p
		}
		w.WriteHeader(http.StatusOK)
	})
	loader := NewSessionLoader(verifier, SessionCookie{})
	return loader.Handler(Gate(access.DefaultRules(), zerolog.Nop())(final))
}

func TestGate(t *testing.T) {
	principal := domain.Principal{
		IdentityID: domain.NewIdentityID(uuid.New()),
		Role:       domain.RoleMember,
		TenantID:   domain.NewTenantID(uuid.New()),
	}
	verifier := stubVerifier{valid: "good", principal: principal}

	tests := []struct {
		name         string
		path         string
		cookie       string
		wantStatus   int
		wantLocation string
	}{
		{"protected without cookie", "/dashboard", "", http.StatusTemporaryRedirect, "/login"},
		{"protected with forged cookie", "/expenses/new", "forged", http.StatusTemporaryRedirect, "/login"},
		{"protected with session", "/dashboard", "good", http.StatusOK, ""},
		{"auth-only with session", "/login", "good", http.StatusTemporaryRedirect, "/dashboard"},
		{"auth-only with forged cookie", "/signup", "forged", http.StatusOK, ""},
		{"api never gated", "/api/session", "", http.StatusOK, ""},
		{"public", "/", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen domain.Principal
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			gatedHandler(t, verifier, &seen).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			if tt.cookie == "good" && tt.wantStatus == http.StatusOK {
				assert.Equal(t, principal, seen)
			}
		})
	}
}

func TestSessionLoader_ClearsInvalidCookie(t *testing.T) {
	var seen domain.Principal
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	rec := httptest.NewRecorder()
	gatedHandler(t, stubVerifier{valid: "good"}, &seen).ServeHTTP(rec, req)

	res := rec.Result()
	require.Len(t, res.Cookies(), 1)
	assert.Equal(t, SessionCookieName, res.Cookies()[0].Name)
	assert.Equal(t, -1, res.Cookies()[0].MaxAge)
}

func TestSessionCookie_Attributes(t *testing.T) {
	rec := httptest.NewRecorder()
	SessionCookie{Secure: true}.Set(rec, domain.Credential{Token: "tok", ExpiresAt: nowPlusHour()})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "session", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.False(t, c.Expires.IsZero())

	rec = httptest.NewRecorder()
	SessionCookie{}.Set(rec, domain.Credential{Token: "tok", ExpiresAt: nowPlusHour()})
	assert.False(t, rec.Result().Cookies()[0].Secure)
}
