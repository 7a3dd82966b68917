package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
)

// TypeAuditEvent delivers one ports.AuditEvent to the audit webhook.
const TypeAuditEvent = "audit:webhook"

const (
	auditQueue     = "audit"
	auditMaxRetry  = 5
	auditTaskRetry = 24 * time.Hour
)

// NewAuditEventTask encodes event as an asynq task.
func NewAuditEventTask(event ports.AuditEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode audit event: %w", err)
	}
	return asynq.NewTask(TypeAuditEvent, payload,
		asynq.Queue(auditQueue),
		asynq.MaxRetry(auditMaxRetry),
		asynq.Retention(auditTaskRetry),
	), nil
}

type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisConnOpt, log zerolog.Logger) *TaskEnqueuer {
	return &TaskEnqueuer{
		client: asynq.NewClient(redisOpt),
		log:    log.With().Str("component", "queue").Logger(),
	}
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

func (q *TaskEnqueuer) EnqueueAuditEvent(ctx context.Context, event ports.AuditEvent) error {
	task, err := NewAuditEventTask(event)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Str("event", event.Event).Msg("enqueue audit event failed")
		return err
	}
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)
