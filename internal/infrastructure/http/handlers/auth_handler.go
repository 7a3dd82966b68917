package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/auth"
	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
	domerrors "github.com/amirhosseinghanipour/expensa/internal/domain/errors"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/http/middleware"
)

// Audit event names.
const (
	EventSignup    = "identity.signup"
	EventBootstrap = "tenant.bootstrap"
	EventLogin     = "session.login"
	EventLogout    = "session.logout"
)

type AuthHandler struct {
	signup *auth.SignUp
	login  *auth.Login
	cookie middleware.SessionCookie
	audit  *Auditor
	log    zerolog.Logger
}

func NewAuthHandler(signup *auth.SignUp, login *auth.Login, cookie middleware.SessionCookie, audit *Auditor, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		signup: signup,
		login:  login,
		cookie: cookie,
		audit:  audit,
		log:    log,
	}
}

type identityResponse struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

type authResponse struct {
	Success      bool             `json:"success"`
	Identity     identityResponse `json:"identity"`
	Bootstrapped bool             `json:"bootstrapped,omitempty"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var body auth.SignUpInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, msgInvalidRequest)
		return
	}
	result, err := h.signup.Execute(r.Context(), body)
	if err != nil {
		h.audit.Record(r, ports.AuditEvent{Event: EventSignup, Success: false, Err: err.Error()})
		middleware.RecordAuthAttempt("signup", false)
		h.writeAuthErr(w, err, "signup")
		return
	}
	p := result.Identity.Principal()
	event := ports.AuditEvent{
		Event:      EventSignup,
		TenantID:   p.TenantID.String(),
		IdentityID: p.IdentityID.String(),
		Role:       p.Role.String(),
		Success:    true,
	}
	h.audit.Record(r, event)
	middleware.RecordAuthAttempt("signup", true)
	if result.Bootstrapped {
		event.Event = EventBootstrap
		h.audit.Record(r, event)
		middleware.RecordBootstrap()
	}

	h.cookie.Set(w, result.Credential)
	writeJSON(w, http.StatusCreated, authResponse{
		Success:      true,
		Identity:     identityResponse{ID: event.IdentityID, Role: event.Role, TenantID: event.TenantID},
		Bootstrapped: result.Bootstrapped,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body auth.LoginInput
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, msgInvalidRequest)
		return
	}
	result, err := h.login.Execute(r.Context(), body)
	if err != nil {
		h.audit.Record(r, ports.AuditEvent{Event: EventLogin, Success: false, Err: err.Error()})
		middleware.RecordAuthAttempt("login", false)
		h.writeAuthErr(w, err, "login")
		return
	}
	p := result.Identity.Principal()
	h.audit.Record(r, ports.AuditEvent{
		Event:      EventLogin,
		TenantID:   p.TenantID.String(),
		IdentityID: p.IdentityID.String(),
		Role:       p.Role.String(),
		Success:    true,
	})
	middleware.RecordAuthAttempt("login", true)

	h.cookie.Set(w, result.Credential)
	writeJSON(w, http.StatusOK, authResponse{
		Success:  true,
		Identity: identityResponse{ID: p.IdentityID.String(), Role: p.Role.String(), TenantID: p.TenantID.String()},
	})
}

// Logout always clears the cookie, whether or not it still held a valid session. The
// principal comes from the session loader; credentials are stateless so nothing is revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	event := ports.AuditEvent{Event: EventLogout, Success: ok}
	if ok {
		event.TenantID = p.TenantID.String()
		event.IdentityID = p.IdentityID.String()
		event.Role = p.Role.String()
	}
	h.audit.Record(r, event)
	middleware.RecordAuthAttempt("logout", ok)

	h.cookie.Clear(w)
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// writeAuthErr maps use-case errors to coarse responses. Detail stays in the server log.
func (h *AuthHandler) writeAuthErr(w http.ResponseWriter, err error, op string) {
	var verr *domerrors.ValidationError
	var locked *domerrors.LockedError
	switch {
	case errors.As(err, &verr):
		writeErrFields(w, http.StatusBadRequest, ErrCodeValidation, msgValidation, verr.Fields)
	case errors.Is(err, domerrors.ErrEmailTaken):
		writeErr(w, http.StatusConflict, ErrCodeEmailTaken, msgEmailTaken)
	case errors.Is(err, domerrors.ErrInvalidCredentials):
		writeErr(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, msgInvalidCredentials)
	case errors.As(err, &locked):
		w.Header().Set("Retry-After", strconv.Itoa(locked.RetryAfterSeconds))
		writeErr(w, http.StatusTooManyRequests, ErrCodeAccountLocked, msgAccountLocked)
	case errors.Is(err, domerrors.ErrTransactionConflict):
		h.log.Warn().Err(err).Str("op", op).Msg("transaction conflict after retry")
		writeErr(w, http.StatusServiceUnavailable, ErrCodeBusy, msgBusy)
	default:
		h.log.Error().Err(err).Str("op", op).Msg(op + " failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
	}
}
