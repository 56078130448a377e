package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/config"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

func sampleReport() *models.SettlementReport {
	return &models.SettlementReport{
		ID:          "rep-1",
		FarmID:      "farm-1",
		PeriodLabel: "2025-01-01 - 2025-12-31",
		ContractSummaries: []models.ContractSummary{
			{ContractID: "ctr-1", SettlementValue: decimal.RequireFromString("2500")},
			{ContractID: "ctr-2", SettlementValue: decimal.RequireFromString("130.50")},
		},
		Warnings: []string{"contract ctr-3 inactive, exits in period left unsettled"},
	}
}

func TestNotifyReport(t *testing.T) {
	var got reportNotification
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(config.NotifyConfig{WebhookURL: srv.URL, AuthToken: "secret"})
	err := client.NotifyReport(context.Background(), sampleReport())
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "rep-1", got.ReportID)
	assert.Equal(t, "farm-1", got.FarmID)
	assert.Equal(t, 2, got.Contracts)
	assert.Equal(t, "2630.50", got.TotalSettled)
	assert.Equal(t, 1, got.Warnings)
}

func TestNotifyReport_EndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"unknown farm"}`))
	}))
	defer srv.Close()

	client := NewClient(config.NotifyConfig{WebhookURL: srv.URL})
	err := client.NotifyReport(context.Background(), sampleReport())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "unknown farm")
}
