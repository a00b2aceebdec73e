package handler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medprice-api/internal/dto"
)

func TestFeedEventTypeFilter(t *testing.T) {
	require.Nil(t, parseEventTypes("  "))

	types := parseEventTypes("report.processed, report.high_risk,,")
	require.Len(t, types, 2)
	require.True(t, acceptsEvent(types, dto.ReportEvent{Type: dto.ReportEventHighRisk}))
	require.False(t, acceptsEvent(types, dto.ReportEvent{Type: dto.ReportEventCreated}))
	require.True(t, acceptsEvent(nil, dto.ReportEvent{Type: dto.ReportEventCreated}))
}
