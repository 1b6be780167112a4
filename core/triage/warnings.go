package triage

import "github.com/curatohealth/medrag/model"

// EmergencyWarning is prepended as the first warning of a response whenever
// the classifier returns the emergency tier.
const EmergencyWarning = "EMERGENCY: your symptoms may indicate a medical emergency. Call your local emergency number or go to the nearest emergency department immediately."

// HighUrgencyWarning advises prompt in-person evaluation for high-tier queries.
const HighUrgencyWarning = "Your symptoms suggest you should be evaluated by a healthcare professional as soon as possible."

// WarningFor returns the advisory warning for a tier, or an empty string when
// the tier carries no warning.
func WarningFor(tier model.UrgencyTier) string {
	switch tier {
	case model.UrgencyEmergency:
		return EmergencyWarning
	case model.UrgencyHigh:
		return HighUrgencyWarning
	default:
		return ""
	}
}
