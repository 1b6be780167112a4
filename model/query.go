package model

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousPatient is the marker used when a query carries no patient id.
const AnonymousPatient = "anonymous"

// MedicalQuery represents one incoming health question. Created per request,
// read-only downstream.
type MedicalQuery struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	PatientID string    `json:"patient_id"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMedicalQuery creates a query with a generated id and current timestamp.
// An empty patientID defaults to the anonymous marker.
func NewMedicalQuery(text, patientID, sessionID string) *MedicalQuery {
	if patientID == "" {
		patientID = AnonymousPatient
	}
	return &MedicalQuery{
		ID:        uuid.New(),
		Text:      text,
		PatientID: patientID,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	}
}
