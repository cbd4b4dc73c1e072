package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	calls   int
	failFor int
	last    json.RawMessage
}

func (h *countingHandler) Process(_ context.Context, raw json.RawMessage) error {
	h.calls++
	h.last = raw
	if h.calls <= h.failFor {
		return errors.New("transient")
	}
	return nil
}

func fastRetry(t *testing.T) {
	prev := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = prev })
}

func encodeJob(t *testing.T, jobType string, payload interface{}) string {
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Job{Type: jobType, Payload: data})
	require.NoError(t, err)
	return string(raw)
}

func TestProcessJob_RoutesByType(t *testing.T) {
	aud := &countingHandler{}
	cierre := &countingHandler{}
	handlers := &WorkerHandlers{Auditoria: aud, CierreCaja: cierre}

	processJob(context.Background(), nil, handlers, QueueReportes, encodeJob(t, JobCierreCaja, CierreCajaPayload{}))

	assert.Equal(t, 0, aud.calls)
	assert.Equal(t, 1, cierre.calls)
}

func TestProcessJob_RetriesUntilSuccess(t *testing.T) {
	fastRetry(t)
	h := &countingHandler{failFor: 2}

	processJob(context.Background(), nil, &WorkerHandlers{Email: h}, QueueEmail, encodeJob(t, JobEmail, EmailJobPayload{ToEmail: "a@b.c"}))

	assert.Equal(t, 3, h.calls)
}

func TestProcessJob_GivesUpAfterMaxAttempts(t *testing.T) {
	fastRetry(t)
	h := &countingHandler{failFor: 100}

	processJob(context.Background(), nil, &WorkerHandlers{Email: h}, QueueEmail, encodeJob(t, JobEmail, EmailJobPayload{}))

	assert.Equal(t, maxJobAttempts, h.calls)
}

func TestProcessJob_UnknownTypeAndGarbageAreDropped(t *testing.T) {
	h := &countingHandler{}
	handlers := &WorkerHandlers{Auditoria: h, CierreCaja: h, Email: h}

	processJob(context.Background(), nil, handlers, QueueEmail, encodeJob(t, "facturacion", struct{}{}))
	processJob(context.Background(), nil, handlers, QueueEmail, "{not json")

	assert.Equal(t, 0, h.calls)
}

func TestWithRetry_StopsOnContextCancel(t *testing.T) {
	retryBaseDelayPrev := retryBaseDelay
	retryBaseDelay = time.Hour
	t.Cleanup(func() { retryBaseDelay = retryBaseDelayPrev })

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := withRetry(ctx, 3, func(int) error { calls++; return errors.New("down") })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDispatcher_WithoutRedis(t *testing.T) {
	var d *Dispatcher
	err := d.EnqueueAuditoria(context.Background(), AuditoriaPayload{Entidad: "caja"})
	assert.ErrorIs(t, err, ErrNoQueue)

	err = NewDispatcher(nil).EnqueueCierreCaja(context.Background(), CierreCajaPayload{})
	assert.ErrorIs(t, err, ErrNoQueue)
}
