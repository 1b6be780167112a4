package medrag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/curatohealth/medrag/core/synthesis"
	"github.com/curatohealth/medrag/core/triage"
	"github.com/curatohealth/medrag/model"
)

// pipelineState tracks where a request is in its lifecycle, mainly for
// failure reporting.
type pipelineState string

const (
	stateReceived     pipelineState = "received"
	stateEmbedding    pipelineState = "embedding"
	stateSearching    pipelineState = "searching"
	stateSynthesizing pipelineState = "synthesizing"
	stateCompleted    pipelineState = "completed"
	stateFailed       pipelineState = "failed"
)

// QueryRequest is the transport-level query payload.
type QueryRequest struct {
	Text      string `json:"text"`
	PatientID string `json:"patient_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Query runs one full request cycle: validate, classify urgency, embed,
// search, synthesize, assemble the response, and write an audit record.
//
// Only invalid caller input is returned as an error (a *model.ResponseError).
// All backend failures degrade gracefully: embedding failures continue with a
// fallback vector, generation failures substitute the safe fallback answer,
// and any unexpected fault yields a degraded outage response instead of
// propagating.
func (s *Service) Query(ctx context.Context, request QueryRequest) (response *model.MedicalResponse, err error) {
	start := time.Now()

	if strings.TrimSpace(request.Text) == "" {
		// Minimal audit entry, no embedding or search is attempted.
		s.emitAudit(ctx, &model.AuditRecord{
			PatientID: patientOrAnonymous(request.PatientID),
			QueryText: request.Text,
			Timestamp: time.Now().UTC(),
			Failure:   "invalid query: missing text",
		})
		return nil, &model.ResponseError{
			Code:    model.CodeMissingText,
			Message: "query text must be a non-empty string",
		}
	}

	query := model.NewMedicalQuery(request.Text, request.PatientID, request.SessionID)
	state := stateReceived
	s.log.Debug("Query received",
		slog.String("query_id", query.ID.String()),
		slog.String("patient_id", query.PatientID),
	)

	// Urgency classification is independent of retrieval and always runs.
	tier := triage.Classify(query.Text)
	if tier == model.UrgencyEmergency && s.onEmergency != nil {
		s.onEmergency(query, tier)
	}

	defer func() {
		if r := recover(); r != nil {
			failedIn := state
			state = stateFailed
			s.log.Error("Pipeline failure, returning degraded response",
				slog.String("query_id", query.ID.String()),
				slog.String("state", string(failedIn)),
				slog.Any("panic", r),
			)
			response = s.degradedResponse(query, tier, start)
			err = nil
			s.emitAudit(ctx, auditRecord(query, response, 0, 0, false, fmt.Sprintf("pipeline failure: %v", r)))
		}
	}()

	state = stateEmbedding
	queryVector, fallbackUsed := s.embedder.Embed(ctx, query.Text)

	state = stateSearching
	result, retrieveErr := s.engine.Retrieve(ctx, queryVector, &s.config)
	if retrieveErr != nil {
		state = stateFailed
		s.log.Error("Retrieval failed, returning degraded response",
			slog.String("query_id", query.ID.String()),
			slog.String("error", retrieveErr.Error()),
		)
		response = s.degradedResponse(query, tier, start)
		s.emitAudit(ctx, auditRecord(query, response, 0, 0, fallbackUsed, "retrieval failed"))
		return response, nil
	}

	state = stateSynthesizing
	warnings := []string{}
	if warning := triage.WarningFor(tier); warning != "" {
		warnings = append(warnings, warning)
	}

	documents := documentsOf(result.Qualifying)
	answer, genErr := s.synthesizer.Synthesize(ctx, query.Text, documents, s.config.MaxContextDocuments)

	confidence := clampConfidence(result.TopSimilarity)
	if genErr != nil {
		answer = synthesis.FallbackAnswer()
		warnings = appendDistinct(warnings, synthesis.FallbackWarning)
		confidence = 0
	}

	state = stateCompleted
	responseID := uuid.New()
	response = &model.MedicalResponse{
		ID:         responseID,
		QueryID:    query.ID,
		Answer:     answer,
		Sources:    documents,
		Confidence: confidence,
		Warnings:   warnings,
		Disclaimer: synthesis.Disclaimer,
		Meta: model.ResponseMeta{
			QueryID:          query.ID,
			ResponseID:       responseID,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			DocumentsUsed:    len(documents),
			Timestamp:        time.Now().UTC(),
		},
	}

	failure := ""
	if genErr != nil {
		failure = "generation failed"
	}
	s.emitAudit(ctx, auditRecord(query, response, len(result.Results), result.TopSimilarity, fallbackUsed, failure))

	s.log.Info("Query completed",
		slog.String("query_id", query.ID.String()),
		slog.String("state", string(state)),
		slog.String("urgency", string(tier)),
		slog.Int("documents_used", len(documents)),
		slog.Float64("confidence", confidence),
	)

	return response, nil
}

// degradedResponse is the safe outage response for unexpected pipeline
// failures: no sources, zero confidence, an in-person care warning.
func (s *Service) degradedResponse(query *model.MedicalQuery, tier model.UrgencyTier, start time.Time) *model.MedicalResponse {
	warnings := []string{}
	if warning := triage.WarningFor(tier); warning != "" {
		warnings = append(warnings, warning)
	}
	warnings = appendDistinct(warnings, synthesis.FallbackWarning)

	responseID := uuid.New()
	return &model.MedicalResponse{
		ID:         responseID,
		QueryID:    query.ID,
		Answer:     synthesis.FallbackAnswer(),
		Sources:    []*model.MedicalDocument{},
		Confidence: 0,
		Warnings:   warnings,
		Disclaimer: synthesis.Disclaimer,
		Meta: model.ResponseMeta{
			QueryID:          query.ID,
			ResponseID:       responseID,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			DocumentsUsed:    0,
			Timestamp:        time.Now().UTC(),
		},
	}
}

// emitAudit writes one audit record. Sink failures are logged, never
// propagated to the request.
func (s *Service) emitAudit(ctx context.Context, record *model.AuditRecord) {
	if err := s.audit.Emit(ctx, record); err != nil {
		s.log.Warn("Failed to emit audit record",
			slog.String("query_id", record.QueryID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func auditRecord(query *model.MedicalQuery, response *model.MedicalResponse, documentsFound int, topSimilarity float64, fallbackUsed bool, failure string) *model.AuditRecord {
	return &model.AuditRecord{
		QueryID:        query.ID,
		PatientID:      query.PatientID,
		QueryText:      query.Text,
		Timestamp:      time.Now().UTC(),
		DocumentsFound: documentsFound,
		TopSimilarity:  topSimilarity,
		Confidence:     response.Confidence,
		FallbackUsed:   fallbackUsed,
		Failure:        failure,
	}
}

func documentsOf(results []*model.SearchResult) []*model.MedicalDocument {
	documents := make([]*model.MedicalDocument, len(results))
	for i, result := range results {
		documents[i] = result.Document
	}
	return documents
}

// clampConfidence maps a cosine similarity into the [0, 1] confidence range.
func clampConfidence(similarity float64) float64 {
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return similarity
}

func appendDistinct(warnings []string, warning string) []string {
	for _, existing := range warnings {
		if existing == warning {
			return warnings
		}
	}
	return append(warnings, warning)
}

func patientOrAnonymous(patientID string) string {
	if patientID == "" {
		return model.AnonymousPatient
	}
	return patientID
}
