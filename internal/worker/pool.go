package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAuditoria = "jobs:auditoria"
	QueueReportes  = "jobs:reportes"
	QueueEmail     = "jobs:email"
)

const (
	JobAuditoria  = "auditoria"
	JobCierreCaja = "cierre_caja"
	JobEmail      = "email"
)

// maxJobAttempts is how many times a handler runs before the job goes to the DLQ.
const maxJobAttempts = 3

// retryBaseDelay is the first backoff step; it doubles on every attempt.
var retryBaseDelay = time.Second

// ErrNoQueue is returned by a Dispatcher built without a Redis client.
var ErrNoQueue = errors.New("worker: no queue configured")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JobHandler processes the payload of one job type.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// WorkerHandlers maps job types to their handlers. A nil handler drops the job.
type WorkerHandlers struct {
	Auditoria  JobHandler
	CierreCaja JobHandler
	Email      JobHandler
}

func (h *WorkerHandlers) handlerFor(jobType string) JobHandler {
	if h == nil {
		return nil
	}
	switch jobType {
	case JobAuditoria:
		return h.Auditoria
	case JobCierreCaja:
		return h.CierreCaja
	case JobEmail:
		return h.Email
	}
	return nil
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAuditoria pushes an audit-log entry.
func (d *Dispatcher) EnqueueAuditoria(ctx context.Context, payload AuditoriaPayload) error {
	return d.enqueue(ctx, QueueAuditoria, JobAuditoria, payload)
}

// EnqueueCierreCaja asks for the close report of a caja.
func (d *Dispatcher) EnqueueCierreCaja(ctx context.Context, payload CierreCajaPayload) error {
	return d.enqueue(ctx, QueueReportes, JobCierreCaja, payload)
}

// EnqueueEmail pushes an email job.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return ErrNoQueue
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming every queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	queues := []string{QueueAuditoria, QueueReportes, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

// processJob runs the handler for one raw job, retrying with exponential
// backoff and moving the job to the DLQ once attempts are exhausted.
func processJob(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, Job{Type: "unknown", Payload: json.RawMessage(fmt.Sprintf("%q", raw))}, "invalid envelope", 0)
		return
	}

	h := handlers.handlerFor(job.Type)
	if h == nil {
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type, dropping")
		return
	}

	attempts := 0
	err := withRetry(ctx, maxJobAttempts, func(attempt int) error {
		attempts = attempt + 1
		return h.Process(ctx, job.Payload)
	})
	if err != nil {
		log.Error().Err(err).Str("type", job.Type).Int("attempts", attempts).Msg("job failed")
		SendToDLQ(ctx, rdb, queue, job, err.Error(), attempts)
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("job processed")
}

// withRetry calls fn up to maxAttempts times with exponential backoff
// (retryBaseDelay, 2×, 4×...). Returns nil if any attempt succeeds.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := retryBaseDelay * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
