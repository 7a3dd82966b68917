package middleware

import (
	"net/http"
	"time"

	"github.com/amirhosseinghanipour/expensa/internal/domain"
)

// SessionCookieName is the cookie carrying the signed credential.
const SessionCookieName = "session"

// SessionCookie writes and reads the session cookie. Secure is set in production only.
type SessionCookie struct {
	Secure bool
}

func (c SessionCookie) Set(w http.ResponseWriter, cred domain.Credential) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    cred.Token,
		Path:     "/",
		Expires:  cred.ExpiresAt.UTC(),
		MaxAge:   int(time.Until(cred.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie on the client.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the raw token, or "" when there is no cookie.
func (c SessionCookie) Read(r *http.Request) string {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}
