package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
)

type recordingEmitter struct {
	events []ports.AuditEvent
	err    error
}

func (e *recordingEmitter) Emit(_ context.Context, event ports.AuditEvent) error {
	e.events = append(e.events, event)
	return e.err
}

func newTestWorker(emitter ports.WebhookEmitter) *Worker {
	return &Worker{emitter: emitter, log: zerolog.Nop()}
}

func TestAuditEventTask_DeliveredToEmitter(t *testing.T) {
	event := ports.AuditEvent{
		Event:      "tenant.bootstrap",
		TenantID:   "t-1",
		IdentityID: "i-1",
		Role:       "ADMINISTRATOR",
		Success:    true,
	}
	task, err := NewAuditEventTask(event)
	require.NoError(t, err)
	assert.Equal(t, TypeAuditEvent, task.Type())

	emitter := &recordingEmitter{}
	require.NoError(t, newTestWorker(emitter).handleAuditEvent(context.Background(), task))
	require.Len(t, emitter.events, 1)
	assert.Equal(t, event, emitter.events[0])
}

func TestAuditEventTask_EmitterErrorIsRetried(t *testing.T) {
	task, err := NewAuditEventTask(ports.AuditEvent{Event: "session.login"})
	require.NoError(t, err)

	emitter := &recordingEmitter{err: errors.New("endpoint down")}
	err = newTestWorker(emitter).handleAuditEvent(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestAuditEventTask_BadPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(TypeAuditEvent, []byte("{not json"))
	err := newTestWorker(&recordingEmitter{}).handleAuditEvent(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNoopEnqueuer(t *testing.T) {
	assert.NoError(t, NewNoopEnqueuer().EnqueueAuditEvent(context.Background(), ports.AuditEvent{Event: "x"}))
}
