package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/access"
	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
)

// SessionLoader verifies the session cookie once per request and stores the principal in
// the request context. Later layers read the context and never the cookie. An invalid
// cookie is cleared and the request continues as anonymous.
type SessionLoader struct {
	verifier ports.SessionVerifier
	cookie   SessionCookie
}

func NewSessionLoader(verifier ports.SessionVerifier, cookie SessionCookie) *SessionLoader {
	return &SessionLoader{verifier: verifier, cookie: cookie}
}

func (m *SessionLoader) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.cookie.Read(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		p, err := m.verifier.Verify(token)
		if err != nil {
			m.cookie.Clear(w)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// Gate applies the access rules before any route handler runs. Use after SessionLoader.
func Gate(rules access.Rules, log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, authenticated := PrincipalFromContext(r.Context())
			action, location := rules.Evaluate(r.URL.Path, authenticated)
			if action == access.ActionAllow {
				next.ServeHTTP(w, r)
				return
			}
			log.Debug().
				Str("path", r.URL.Path).
				Str("action", action.String()).
				Msg("gate redirect")
			http.Redirect(w, r, location, http.StatusTemporaryRedirect)
		})
	}
}
