package webhook

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
)

// LogEmitter stands in for HTTPEmitter when WEBHOOK_URL is unset: queued audit events
// are written to the log at debug level and dropped.
type LogEmitter struct {
	log zerolog.Logger
}

func NewLogEmitter(log zerolog.Logger) *LogEmitter {
	return &LogEmitter{log: log.With().Str("component", "webhook").Logger()}
}

func (e *LogEmitter) Emit(ctx context.Context, event ports.AuditEvent) error {
	e.log.Debug().
		Str("event", event.Event).
		Str("tenant_id", event.TenantID).
		Str("identity_id", event.IdentityID).
		Bool("success", event.Success).
		Msg("audit event not delivered: no webhook configured")
	return nil
}

var _ ports.WebhookEmitter = (*LogEmitter)(nil)
