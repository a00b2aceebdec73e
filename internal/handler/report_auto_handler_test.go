package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medprice-api/internal/dto"
	"github.com/noah-isme/medprice-api/internal/models"
	"github.com/noah-isme/medprice-api/internal/utils"
)

func TestAutoProcessResponseContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "auto_process.schema.json"))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)

	env := newTestEnv(t)
	report := env.seedReport(t, nil)

	status, body := env.do(t, http.MethodPost, fmt.Sprintf("/api/reports/%d/auto", report.ID), adminToken(t), nil)
	require.Equal(t, http.StatusOK, status)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))

	var result dto.AutoProcessResponse
	require.NoError(t, json.Unmarshal(body, &result))
	require.True(t, result.OK)
	require.Equal(t, string(models.ReportStatusAutoDone), result.Status)
	require.Equal(t, "status(pending→auto_done)", result.DiffSummary)
	require.Equal(t, 100.0, result.AutoScore.Score)
}

func TestAutoProcessIsMountedForAdmins(t *testing.T) {
	env := newTestEnv(t)
	report := env.seedReport(t, nil)

	status, _ := env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/reports/%d/auto", report.ID), adminToken(t), nil)
	require.Equal(t, http.StatusOK, status)

	// A second run leaves the status unchanged.
	status, body := env.do(t, http.MethodPost, fmt.Sprintf("/api/admin/reports/%d/auto", report.ID), adminToken(t), nil)
	require.Equal(t, http.StatusOK, status)
	var result dto.AutoProcessResponse
	require.NoError(t, json.Unmarshal(body, &result))
	require.Equal(t, "no changes", result.DiffSummary)
}

func TestAutoProcessErrorCodes(t *testing.T) {
	env := newTestEnv(t)
	risky := env.seedReport(t, func(r *models.Report) { r.AnomalyScore = 90 })
	plain := env.seedReport(t, nil)

	cases := []struct {
		name   string
		path   string
		token  string
		status int
		code   string
	}{
		{"non numeric id", "/api/reports/abc/auto", adminToken(t), http.StatusBadRequest, "INVALID_ID"},
		{"zero id", "/api/reports/0/auto", adminToken(t), http.StatusBadRequest, "INVALID_ID"},
		{"unknown report", "/api/reports/9999/auto", adminToken(t), http.StatusNotFound, "REPORT_NOT_FOUND"},
		{"high risk", fmt.Sprintf("/api/reports/%d/auto", risky.ID), adminToken(t), http.StatusUnprocessableEntity, "HIGH_RISK_BLOCKED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodPost, tc.path, tc.token, nil)
			require.Equal(t, tc.status, status)

			var payload utils.CodeResponse
			require.NoError(t, json.Unmarshal(body, &payload))
			require.False(t, payload.OK)
			require.Equal(t, tc.code, payload.Error)
		})
	}

	status, _ := env.do(t, http.MethodPost, fmt.Sprintf("/api/reports/%d/auto", plain.ID), userToken(t, "user-1"), nil)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/reports/%d/auto", plain.ID), "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	var stored models.Report
	require.NoError(t, env.db.First(&stored, risky.ID).Error)
	require.Equal(t, models.ReportStatusPending, stored.Status)
}

func TestDiffEndpoint(t *testing.T) {
	env := newTestEnv(t)
	report := env.seedReport(t, nil)
	path := fmt.Sprintf("/api/reports/%d/diff", report.ID)

	status, body := env.do(t, http.MethodGet, path, adminToken(t), nil)
	require.Equal(t, http.StatusNotFound, status)
	var failure utils.CodeResponse
	require.NoError(t, json.Unmarshal(body, &failure))
	require.Equal(t, "NO_DIFF_FOUND", failure.Error)

	status, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/reports/%d/auto", report.ID), adminToken(t), nil)
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, path, adminToken(t), nil)
	require.Equal(t, http.StatusOK, status)
	var diff dto.DiffResponse
	require.NoError(t, json.Unmarshal(body, &diff))
	require.True(t, diff.OK)
	require.Equal(t, "status(pending→auto_done)", diff.Summary)
	require.Equal(t, "pending", diff.Before.Status)
	require.Equal(t, "auto_done", diff.After.Status)
}

func TestAnalysisEndpointDoesNotWrite(t *testing.T) {
	env := newTestEnv(t)
	report := env.seedReport(t, nil)

	status, body := env.do(t, http.MethodGet, fmt.Sprintf("/api/reports/%d/analysis", report.ID), adminToken(t), nil)
	require.Equal(t, http.StatusOK, status)

	var analysis dto.AnalysisResponse
	require.NoError(t, json.Unmarshal(body, &analysis))
	require.True(t, analysis.OK)
	require.Equal(t, "auto_done", analysis.NextStatus)
	require.False(t, analysis.HighRisk)
	require.NotEmpty(t, analysis.Explanation)

	var stored models.Report
	require.NoError(t, env.db.First(&stored, report.ID).Error)
	require.Equal(t, models.ReportStatusPending, stored.Status)
}
