package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
)

// Auditor logs auth events and hands them to the queue for webhook delivery.
type Auditor struct {
	log      zerolog.Logger
	enqueuer ports.TaskEnqueuer
}

// NewAuditor builds an Auditor. enqueuer may be nil.
func NewAuditor(log zerolog.Logger, enqueuer ports.TaskEnqueuer) *Auditor {
	return &Auditor{log: log, enqueuer: enqueuer}
}

// Record logs an auth_audit line and enqueues the event. Enqueue failures are logged only.
func (a *Auditor) Record(r *http.Request, event ports.AuditEvent) {
	event.IP = r.RemoteAddr
	ev := a.log.Info()
	if !event.Success {
		ev = a.log.Warn()
	}
	ev.
		Str("event", event.Event).
		Str("tenant_id", event.TenantID).
		Str("identity_id", event.IdentityID).
		Str("ip", event.IP).
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("success", event.Success)
	if event.Err != "" {
		ev.Str("error", event.Err)
	}
	ev.Msg("auth_audit")

	if a.enqueuer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
	defer cancel()
	if err := a.enqueuer.EnqueueAuditEvent(ctx, event); err != nil {
		a.log.Warn().Err(err).Str("event", event.Event).Msg("audit enqueue failed")
	}
}
