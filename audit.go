package medrag

import (
	"context"
	"log/slog"

	"github.com/curatohealth/medrag/model"
)

// AuditSink receives the append-only stream of audit records. A failing sink
// never fails the request it records.
type AuditSink interface {
	Emit(ctx context.Context, record *model.AuditRecord) error
}

// AuditSinkFunc adapts a function to the AuditSink interface.
type AuditSinkFunc func(ctx context.Context, record *model.AuditRecord) error

// Emit implements AuditSink.
func (f AuditSinkFunc) Emit(ctx context.Context, record *model.AuditRecord) error {
	return f(ctx, record)
}

// SlogAuditSink writes audit records to a structured logger.
type SlogAuditSink struct {
	log *slog.Logger
}

// NewSlogAuditSink creates the default audit sink.
func NewSlogAuditSink(logger *slog.Logger) *SlogAuditSink {
	return &SlogAuditSink{log: logger}
}

// Emit implements AuditSink.
func (s *SlogAuditSink) Emit(ctx context.Context, record *model.AuditRecord) error {
	s.log.Info("Audit record",
		slog.String("query_id", record.QueryID.String()),
		slog.String("patient_id", record.PatientID),
		slog.Time("timestamp", record.Timestamp),
		slog.Int("documents_found", record.DocumentsFound),
		slog.Float64("top_similarity", record.TopSimilarity),
		slog.Float64("confidence", record.Confidence),
		slog.Bool("fallback_used", record.FallbackUsed),
		slog.String("failure", record.Failure),
	)
	return nil
}
