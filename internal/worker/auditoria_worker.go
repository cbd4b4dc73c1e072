package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hersis/internal/model"
	"hersis/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuditoriaPayload is the job body pushed to QueueAuditoria.
type AuditoriaPayload struct {
	Accion      model.AccionLog `json:"accion"`
	Entidad     string          `json:"entidad"`
	Descripcion string          `json:"descripcion"`
	UsuarioID   uuid.UUID       `json:"usuario_id"`
	Timestamp   time.Time       `json:"timestamp"`
}

// AuditoriaWorker writes audit entries to the logs table.
type AuditoriaWorker struct {
	logs repository.LogRepository
}

func NewAuditoriaWorker(logs repository.LogRepository) *AuditoriaWorker {
	return &AuditoriaWorker{logs: logs}
}

func (w *AuditoriaWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p AuditoriaPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("auditoria_worker: invalid payload: %w", err)
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	entry := &model.LogAuditoria{
		Accion:      p.Accion,
		Entidad:     p.Entidad,
		Descripcion: p.Descripcion,
		UsuarioID:   p.UsuarioID,
		Timestamp:   p.Timestamp,
	}
	if err := w.logs.Create(ctx, entry); err != nil {
		return err
	}
	log.Debug().Str("accion", string(p.Accion)).Str("entidad", p.Entidad).Msg("auditoria_worker: entry written")
	return nil
}
