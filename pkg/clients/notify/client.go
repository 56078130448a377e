package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/config"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
)

// Client delivers settlement report notifications to an external endpoint.
type Client interface {
	NotifyReport(ctx context.Context, report *models.SettlementReport) error
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook notifier using the provided configuration.
func NewClient(cfg config.NotifyConfig) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)
	if cfg.AuthToken != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.AuthToken))
	}

	return &WebhookClient{
		httpClient: restyClient,
		url:        cfg.WebhookURL,
	}
}

// reportNotification is the payload posted for each finished report.
type reportNotification struct {
	ReportID     string `json:"report_id"`
	FarmID       string `json:"farm_id"`
	Period       string `json:"period"`
	Contracts    int    `json:"contracts"`
	TotalSettled string `json:"total_settled"`
	Warnings     int    `json:"warnings"`
}

// apiError represents an error payload returned by the webhook endpoint.
type apiError struct {
	Error string `json:"error"`
}

// NotifyReport posts a compact summary of the report to the webhook.
func (c *WebhookClient) NotifyReport(ctx context.Context, report *models.SettlementReport) error {
	total := decimal.Zero
	for _, cs := range report.ContractSummaries {
		total = total.Add(cs.SettlementValue)
	}

	payload := reportNotification{
		ReportID:     report.ID,
		FarmID:       report.FarmID,
		Period:       report.PeriodLabel,
		Contracts:    len(report.ContractSummaries),
		TotalSettled: total.StringFixed(2),
		Warnings:     len(report.Warnings),
	}

	apiErr := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post report notification: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("report webhook error: status=%d, message=%s", resp.StatusCode(), apiErr.Error)
	}

	return nil
}
