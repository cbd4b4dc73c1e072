package service

import (
	"context"
	"time"

	"hersis/internal/model"
	"hersis/internal/repository"
	"hersis/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuditEnqueuer pushes audit entries to the async queue. *worker.Dispatcher
// implements it.
type AuditEnqueuer interface {
	EnqueueAuditoria(ctx context.Context, payload worker.AuditoriaPayload) error
}

// Auditoria is the fire-and-forget audit sink. Append never fails: errors
// are logged at warn level and dropped.
type Auditoria interface {
	Append(ctx context.Context, accion model.AccionLog, entidad, descripcion string, usuarioID uuid.UUID)
}

type auditoria struct {
	queue AuditEnqueuer
	logs  repository.LogRepository
}

// NewAuditoria builds the sink. With a nil queue entries are written
// synchronously through logs; with both nil they are only logged.
func NewAuditoria(queue AuditEnqueuer, logs repository.LogRepository) Auditoria {
	return &auditoria{queue: queue, logs: logs}
}

func (a *auditoria) Append(ctx context.Context, accion model.AccionLog, entidad, descripcion string, usuarioID uuid.UUID) {
	now := time.Now()
	ev := log.Warn().Str("accion", string(accion)).Str("entidad", entidad)

	if a.queue != nil {
		err := a.queue.EnqueueAuditoria(ctx, worker.AuditoriaPayload{
			Accion:      accion,
			Entidad:     entidad,
			Descripcion: descripcion,
			UsuarioID:   usuarioID,
			Timestamp:   now,
		})
		if err != nil {
			ev.Err(err).Msg("auditoria: enqueue failed, entry dropped")
		}
		return
	}
	if a.logs == nil {
		ev.Str("descripcion", descripcion).Msg("auditoria: no sink configured")
		return
	}
	err := a.logs.Create(ctx, &model.LogAuditoria{
		Accion:      accion,
		Entidad:     entidad,
		Descripcion: descripcion,
		UsuarioID:   usuarioID,
		Timestamp:   now,
	})
	if err != nil {
		ev.Err(err).Msg("auditoria: write failed, entry dropped")
	}
}
