package triage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medprice-api/internal/models"
)

func TestValidateTransitionAllowsForwardMoves(t *testing.T) {
	require.NoError(t, ValidateTransition(models.ReportStatusPending, models.ReportStatusAutoDone))
	require.NoError(t, ValidateTransition(models.ReportStatusProcessing, models.ReportStatusManualRequired))
	require.NoError(t, ValidateTransition(models.ReportStatusAutoDone, models.ReportStatusRejected))
	require.NoError(t, ValidateTransition(models.ReportStatusManualRequired, models.ReportStatusCompleted))
}

func TestValidateTransitionRejectsInvalidMoves(t *testing.T) {
	cases := [][2]models.ReportStatus{
		{models.ReportStatusCompleted, models.ReportStatusPending},
		{models.ReportStatusRejected, models.ReportStatusCompleted},
		{models.ReportStatusAutoDone, models.ReportStatusManualRequired},
		{models.ReportStatusPending, models.ReportStatusPending},
		{models.ReportStatus("archived"), models.ReportStatusCompleted},
	}
	for _, tc := range cases {
		err := ValidateTransition(tc[0], tc[1])
		require.Error(t, err, "%s -> %s", tc[0], tc[1])
		require.True(t, errors.Is(err, ErrInvalidTransition))

		var transitionErr *TransitionError
		require.True(t, errors.As(err, &transitionErr))
		require.Equal(t, tc[1], transitionErr.To)
	}
}

func TestCanAutoProcess(t *testing.T) {
	require.True(t, CanAutoProcess(models.ReportStatusPending))
	require.True(t, CanAutoProcess(models.ReportStatusProcessing))
	require.False(t, CanAutoProcess(models.ReportStatusAutoDone))
	require.False(t, CanAutoProcess(models.ReportStatusCompleted))
}
