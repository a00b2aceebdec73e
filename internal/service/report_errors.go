package service

import "errors"

var (
	// ErrReportNotFound is returned when a report id does not exist.
	ErrReportNotFound = errors.New("report not found")
	// ErrNoDiffFound is returned when a report has no automatic run with a snapshot.
	ErrNoDiffFound = errors.New("no diff found for report")
	// ErrHighRiskBlocked is returned when the anomaly score forbids automatic processing.
	ErrHighRiskBlocked = errors.New("high risk report requires manual review")
	// ErrConcurrentUpdate is returned when another writer changed the report first.
	ErrConcurrentUpdate = errors.New("report was updated concurrently")
	// ErrReasonRequired is returned when a manual review request carries no reason.
	ErrReasonRequired = errors.New("reason is required")
	// ErrInvalidWeights is returned for coefficients outside (0, 3].
	ErrInvalidWeights = errors.New("weights must be greater than 0 and at most 3")
	// ErrProviderNotFound is returned when a report references an unknown provider.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrEmptyContent is returned when report content is blank after sanitizing.
	ErrEmptyContent = errors.New("report content is empty")
)
