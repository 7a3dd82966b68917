package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
	"github.com/amirhosseinghanipour/expensa/internal/infrastructure/http/middleware"
)

// SessionHandler serves session introspection and the signed-in landing data.
type SessionHandler struct {
	registry    ports.TenantRegistry
	landingPath string
	log         zerolog.Logger
}

func NewSessionHandler(registry ports.TenantRegistry, landingPath string, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, landingPath: landingPath, log: log}
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	IdentityID    string `json:"identity_id,omitempty"`
	Role          string `json:"role,omitempty"`
	TenantID      string `json:"tenant_id,omitempty"`
}

// Session reports the principal of the request's session cookie.
func (h *SessionHandler) Session(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		IdentityID:    p.IdentityID.String(),
		Role:          p.Role.String(),
		TenantID:      p.TenantID.String(),
	})
}

type dashboardResponse struct {
	Identity struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"identity"`
	Tenant struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Country  string `json:"country"`
		Currency string `json:"currency"`
	} `json:"tenant"`
}

// Dashboard is the signed-in landing page. The gate has already required a session.
func (h *SessionHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, msgUnauthorized)
		return
	}
	identity, err := h.registry.GetIdentityByID(r.Context(), p.IdentityID)
	if err != nil {
		h.log.Error().Err(err).Msg("load identity failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
		return
	}
	tenant, err := h.registry.GetTenantByID(r.Context(), p.TenantID)
	if err != nil {
		h.log.Error().Err(err).Msg("load tenant failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
		return
	}
	if identity == nil || tenant == nil {
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, "Account not found.")
		return
	}

	var resp dashboardResponse
	resp.Identity.ID = identity.ID.String()
	resp.Identity.Name = identity.Name
	resp.Identity.Email = identity.Email
	// Role comes from the credential, which is what the gate authorised.
	resp.Identity.Role = p.Role.String()
	resp.Tenant.ID = tenant.ID.String()
	resp.Tenant.Name = tenant.Name
	resp.Tenant.Country = tenant.Country
	resp.Tenant.Currency = tenant.Currency
	writeJSON(w, http.StatusOK, resp)
}

// Root sends visitors to the landing page; the gate takes anonymous ones on to login.
func (h *SessionHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.landingPath, http.StatusTemporaryRedirect)
}

// Page answers a page route whose rendering lives in the frontend.
func Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"page": name})
	}
}
