package triage

import (
	"errors"
	"fmt"

	"github.com/noah-isme/medprice-api/internal/models"
)

// ErrInvalidTransition is matched by every TransitionError.
var ErrInvalidTransition = errors.New("invalid report status transition")

// TransitionError describes a rejected status change.
type TransitionError struct {
	From models.ReportStatus
	To   models.ReportStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("report status cannot move from %q to %q", e.From, e.To)
}

// Is lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

var allowedTransitions = map[models.ReportStatus][]models.ReportStatus{
	models.ReportStatusPending: {
		models.ReportStatusProcessing,
		models.ReportStatusAutoDone,
		models.ReportStatusManualRequired,
		models.ReportStatusCompleted,
		models.ReportStatusRejected,
	},
	models.ReportStatusProcessing: {
		models.ReportStatusAutoDone,
		models.ReportStatusManualRequired,
		models.ReportStatusCompleted,
		models.ReportStatusRejected,
	},
	models.ReportStatusAutoDone: {
		models.ReportStatusCompleted,
		models.ReportStatusRejected,
	},
	models.ReportStatusManualRequired: {
		models.ReportStatusCompleted,
		models.ReportStatusRejected,
	},
}

// ValidateTransition checks a status change against the forward-only lifecycle.
func ValidateTransition(from, to models.ReportStatus) error {
	if !from.Valid() || !to.Valid() || from == to {
		return &TransitionError{From: from, To: to}
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// CanAutoProcess reports whether an auto-process run may still move a report.
func CanAutoProcess(status models.ReportStatus) bool {
	return status == models.ReportStatusPending || status == models.ReportStatusProcessing
}
