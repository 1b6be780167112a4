// Package triage classifies query text into urgency tiers via rule-based
// pattern matching. Classification is pure and side-effect-free: it runs on
// every query independently of retrieval, and its result drives both the
// response warnings and the emergency signal to the surrounding application.
package triage

import (
	"strings"

	"github.com/curatohealth/medrag/model"
)

// Pattern tiers are evaluated in strict precedence order: any emergency
// match wins immediately, then high, then medium. No match defaults to low.
// Patterns cover Portuguese and English phrasings since queries arrive in
// both.
var emergencyPatterns = []string{
	"dor no peito",
	"chest pain",
	"falta de ar intensa",
	"severe breathing difficulty",
	"can't breathe",
	"nao consigo respirar",
	"não consigo respirar",
	"perda de consciencia",
	"perda de consciência",
	"loss of consciousness",
	"unconscious",
	"desmaiou",
	"convulsao",
	"convulsão",
	"seizure",
	"sangramento intenso",
	"heavy bleeding",
	"paralisia subita",
	"paralisia súbita",
	"sudden paralysis",
	"avc",
	"stroke",
}

var highPatterns = []string{
	"dor intensa",
	"intense pain",
	"severe pain",
	"febre alta",
	"high fever",
	"vomito persistente",
	"vômito persistente",
	"persistent vomiting",
	"sangramento",
	"bleeding",
	"inchaco subito",
	"inchaço súbito",
	"sudden swelling",
}

var mediumPatterns = []string{
	"dor ha dias",
	"dor há dias",
	"pain for days",
	"febre",
	"fever",
	"tosse persistente",
	"persistent cough",
	"nausea",
	"náusea",
	"enjoo",
	"tontura",
	"dizziness",
	"dor abdominal",
	"abdominal pain",
}

// Classify returns the urgency tier for the given query text. Matching is
// case-insensitive substring matching with short-circuiting precedence.
func Classify(text string) model.UrgencyTier {
	lowered := strings.ToLower(text)

	if matchesAny(lowered, emergencyPatterns) {
		return model.UrgencyEmergency
	}
	if matchesAny(lowered, highPatterns) {
		return model.UrgencyHigh
	}
	if matchesAny(lowered, mediumPatterns) {
		return model.UrgencyMedium
	}
	return model.UrgencyLow
}

func matchesAny(text string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}
