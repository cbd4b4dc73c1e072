package worker

// email_worker.go
// Processes email jobs from QueueEmail.
// Sends register-close reports via SMTP behind a circuit breaker.

import (
	"context"
	"encoding/json"
	"fmt"

	"hersis/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// ReportSender delivers one report e-mail. *infra.Mailer implements it.
type ReportSender interface {
	Enabled() bool
	SendReporte(to, subject, body, pdfPath string) error
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	sender ReportSender
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(sender ReportSender, cb *infra.CircuitBreaker) *EmailWorker {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	}
	return &EmailWorker{sender: sender, cb: cb}
}

// Process sends the e-mail. A disabled sender or an empty recipient drops the
// job without error; an open circuit is returned so the job is retried.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}
	if !w.sender.Enabled() {
		log.Warn().Str("to", payload.ToEmail).Msg("email_worker: SMTP not configured, skipping")
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.sender.SendReporte(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	})
	if err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		return err
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: report sent")
	return nil
}
