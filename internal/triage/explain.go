package triage

import (
	"strings"

	"github.com/noah-isme/medprice-api/internal/models"
)

// ExplanationInput gathers the signals summarised in a log reason.
type ExplanationInput struct {
	AutoScore      float64
	DuplicateScore float64
	ContentLength  int
	Priority       models.ReportPriority
}

// GenerateExplanation renders a short human-readable justification of an auto-process run.
func GenerateExplanation(in ExplanationInput) string {
	parts := make([]string, 0, 4)

	switch {
	case in.AutoScore >= recommendedAutoScore:
		parts = append(parts, "Auto-process score is high enough for automatic handling.")
	case in.AutoScore >= possibleAutoScore:
		parts = append(parts, "Auto-process score is above the baseline; automatic handling is possible.")
	default:
		parts = append(parts, "Auto-process score is too low for automatic handling.")
	}

	switch {
	case in.DuplicateScore >= blockedDuplicateScore:
		parts = append(parts, "Likely duplicate; automation is restricted.")
	case in.DuplicateScore >= 30:
		parts = append(parts, "Some similar reports were found but within tolerance.")
	default:
		parts = append(parts, "Duplicate risk is low.")
	}

	switch {
	case in.ContentLength < 10:
		parts = append(parts, "Report content is too short.")
	case in.ContentLength < 30:
		parts = append(parts, "Report content is short but acceptable.")
	default:
		parts = append(parts, "Report content is specific.")
	}

	if in.Priority == models.ReportPriorityHigh {
		parts = append(parts, "High priority limits automatic handling.")
	} else {
		parts = append(parts, "Priority does not affect automatic handling.")
	}

	return strings.Join(parts, " ")
}
