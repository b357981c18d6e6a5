package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/listo-ph/listo/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertUnacknowledgedDistress AlertType = "unacknowledged_distress"
	AlertPendingBacklog         AlertType = "pending_backlog"
	AlertStalePending           AlertType = "stale_pending"
	AlertUnknownCategory        AlertType = "unknown_category"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
// Zero thresholds disable the backlog and age checks.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.DistressUnacknowledged > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertUnacknowledgedDistress,
			Severity: "critical",
			Message:  fmt.Sprintf("%d distress signal(s) not acknowledged", snap.DistressUnacknowledged),
			Details: map[string]any{
				"unacknowledged": snap.DistressUnacknowledged,
				"total":          snap.DistressTotal,
			},
			Timestamp: now,
		})
	}

	if a.cfg.PendingThreshold > 0 && snap.PendingReports >= a.cfg.PendingThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertPendingBacklog,
			Severity: "high",
			Message: fmt.Sprintf("%d reports awaiting review (threshold %d)",
				snap.PendingReports, a.cfg.PendingThreshold),
			Details: map[string]any{
				"pending":   snap.PendingReports,
				"threshold": a.cfg.PendingThreshold,
			},
			Timestamp: now,
		})
	}

	if a.cfg.PendingMaxAgeHours > 0 && snap.OldestPendingHours > float64(a.cfg.PendingMaxAgeHours) {
		alerts = append(alerts, Alert{
			Type:     AlertStalePending,
			Severity: "medium",
			Message: fmt.Sprintf("Oldest pending report waited %.0fh (limit %dh)",
				snap.OldestPendingHours, a.cfg.PendingMaxAgeHours),
			Details: map[string]any{
				"oldest_hours": snap.OldestPendingHours,
				"limit_hours":  a.cfg.PendingMaxAgeHours,
			},
			Timestamp: now,
		})
	}

	if snap.UnknownCategory > 0 {
		alerts = append(alerts, Alert{
			Type:      AlertUnknownCategory,
			Severity:  "low",
			Message:   fmt.Sprintf("%d crime(s) with unknown category; run cleanup", snap.UnknownCategory),
			Details:   map[string]any{"count": snap.UnknownCategory},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
