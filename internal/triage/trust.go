package triage

import "github.com/noah-isme/medprice-api/internal/models"

// Trust scores live in this closed range.
const (
	MinTrust     = 0.3
	MaxTrust     = 1.0
	DefaultTrust = 1.0
)

const (
	userTrustSuccess     = 0.02
	userTrustFailure     = -0.07
	providerTrustSuccess = 0.03
	providerTrustFailure = -0.05
)

// LogOutcome is the part of a report log the override evaluation looks at.
type LogOutcome struct {
	Auto      bool
	NewStatus models.ReportStatus
}

// Feedback is the signal derived from the two most recent logs of a report.
type Feedback struct {
	Success    bool `json:"success"`
	Overridden bool `json:"overridden"`
}

// EvaluateOverride inspects logs ordered newest first. A signal exists only when an admin
// acted on an automatic auto_done decision: completing it confirms the decision, any other
// manual move overrides it. Every other history yields no signal.
func EvaluateOverride(logs []LogOutcome) (Feedback, bool) {
	if len(logs) < 2 {
		return Feedback{}, false
	}

	latest, previous := logs[0], logs[1]
	if latest.Auto || !previous.Auto || previous.NewStatus != models.ReportStatusAutoDone {
		return Feedback{}, false
	}

	overridden := latest.NewStatus != models.ReportStatusCompleted
	return Feedback{Success: !overridden, Overridden: overridden}, true
}

// AdjustUserTrust applies the reporter feedback delta.
func AdjustUserTrust(current float64, success bool) float64 {
	if success {
		return boundTrust(current + userTrustSuccess)
	}
	return boundTrust(current + userTrustFailure)
}

// AdjustProviderTrust applies the provider feedback delta.
func AdjustProviderTrust(current float64, success bool) float64 {
	if success {
		return boundTrust(current + providerTrustSuccess)
	}
	return boundTrust(current + providerTrustFailure)
}

func boundTrust(v float64) float64 {
	return round4(clampFloat(v, MinTrust, MaxTrust))
}
