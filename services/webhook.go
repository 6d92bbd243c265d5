package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"uriscan/models"

	"go.uber.org/zap"
)

// WebhookService pushes alert batches to the caregiver dashboard so its
// notification panel updates without waiting for a Firestore listener.
type WebhookService struct {
	logger     *zap.Logger
	apiURL     string
	httpClient *http.Client
}

// WebhookPayload represents the payload sent to the dashboard endpoint
type WebhookPayload struct {
	UserID    string          `json:"user_id"`
	RecordID  string          `json:"record_id"`
	Timestamp time.Time       `json:"timestamp"`
	Severity  string          `json:"severity"`
	Alerts    []*models.Alert `json:"alerts"`
}

// NewWebhookService creates a new dashboard webhook service
func NewWebhookService(logger *zap.Logger, apiURL string) *WebhookService {
	return &WebhookService{
		logger: logger,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendAlertWebhook posts the alert batch for one record via HTTP POST
func (w *WebhookService) SendAlertWebhook(uid string, record *models.CombinedRecord, alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	payload := WebhookPayload{
		UserID:    uid,
		RecordID:  record.ID,
		Timestamp: record.Timestamp,
		Severity:  w.determineSeverity(alerts),
		Alerts:    alerts,
	}

	// Convert payload to JSON
	jsonData, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error("Failed to marshal webhook payload",
			zap.Error(err),
			zap.String("uid", uid),
		)
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	// Build endpoint
	endpoint := fmt.Sprintf("%s/api/v1/health-alert", w.apiURL)

	// Create HTTP request
	req, err := http.NewRequest("POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		w.logger.Error("Failed to create HTTP request",
			zap.Error(err),
			zap.String("url", endpoint),
		)
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "URISCAN-Service/1.0")

	// Send request
	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.logger.Error("Failed to send alert webhook",
			zap.Error(err),
			zap.String("uid", uid),
			zap.String("url", endpoint),
		)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// Check response status
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		w.logger.Info("Alert webhook sent successfully",
			zap.String("uid", uid),
			zap.Int("alert_count", len(alerts)),
			zap.Int("status_code", resp.StatusCode),
		)
		return nil
	}

	w.logger.Error("Dashboard webhook returned error",
		zap.String("uid", uid),
		zap.Int("status_code", resp.StatusCode),
		zap.String("status", resp.Status),
	)
	return fmt.Errorf("dashboard webhook error: %s", resp.Status)
}

// determineSeverity reduces the batch to its worst alert severity
func (w *WebhookService) determineSeverity(alerts []*models.Alert) string {
	for _, alert := range alerts {
		if alert.Severity == models.SeverityAlert {
			return string(models.SeverityAlert)
		}
	}
	return string(models.SeverityWarning)
}
