package worker

// cierre_caja_worker.go
// Renders the close report of a caja and hands it to the email queue.
// The close itself is already committed; nothing here can undo it.

import (
	"context"
	"encoding/json"
	"fmt"

	"hersis/internal/infra"
	"hersis/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CierreCajaPayload is the job body pushed to QueueReportes.
type CierreCajaPayload struct {
	CajaID uuid.UUID `json:"caja_id"`
}

// EmailEnqueuer is the part of the Dispatcher the report worker needs.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type CierreCajaWorker struct {
	repos       repository.Repos
	storagePath string
	recipient   string
	emails      EmailEnqueuer
}

// NewCierreCajaWorker builds the report worker. With an empty recipient or a
// nil enqueuer the PDF is only written to storagePath.
func NewCierreCajaWorker(repos repository.Repos, storagePath, recipient string, emails EmailEnqueuer) *CierreCajaWorker {
	return &CierreCajaWorker{repos: repos, storagePath: storagePath, recipient: recipient, emails: emails}
}

func (w *CierreCajaWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p CierreCajaPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("cierre_caja_worker: invalid payload: %w", err)
	}

	caja, err := w.repos.Cajas.FindByID(ctx, p.CajaID)
	if err != nil {
		return err
	}
	ventas, err := w.repos.Ventas.ListByCaja(ctx, caja.ID)
	if err != nil {
		return err
	}

	pdfPath, err := infra.GenerateCierreCajaPDF(caja, ventas, w.storagePath)
	if err != nil {
		return err
	}
	log.Info().Str("caja_id", caja.ID.String()).Str("pdf", pdfPath).Msg("cierre_caja_worker: report generated")

	if w.recipient == "" || w.emails == nil {
		return nil
	}
	diferencia := "0.00"
	if caja.Diferencia != nil {
		diferencia = caja.Diferencia.StringFixed(2)
	}
	return w.emails.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.recipient,
		Subject: fmt.Sprintf("Cierre de caja %s", caja.ID),
		Body: fmt.Sprintf("Monto esperado: $%s\nEfectivo contado: $%s\nDiferencia: $%s\nVentas: %d",
			caja.MontoEsperado.StringFixed(2), montoFinal(caja.MontoFinal), diferencia, len(ventas)),
		PDFPath: pdfPath,
	})
}

func montoFinal(m *decimal.Decimal) string {
	if m == nil {
		return "-"
	}
	return m.StringFixed(2)
}
