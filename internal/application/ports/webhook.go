package ports

import "context"

// AuditEvent is a single audit event for logging or webhooks.
type AuditEvent struct {
	Event      string `json:"event"` // identity.signup, tenant.bootstrap, session.login, ...
	TenantID   string `json:"tenant_id,omitempty"`
	IdentityID string `json:"identity_id,omitempty"`
	Role       string `json:"role,omitempty"`
	IP         string `json:"ip,omitempty"`
	Success    bool   `json:"success"`
	Err        string `json:"error,omitempty"`
}

// WebhookEmitter sends audit events to an external endpoint.
type WebhookEmitter interface {
	Emit(ctx context.Context, event AuditEvent) error
}
