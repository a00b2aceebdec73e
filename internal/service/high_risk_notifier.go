package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/medprice-api/internal/models"
)

// HighRiskNotifier alerts administrators about reports blocked by the anomaly guard.
type HighRiskNotifier interface {
	NotifyHighRisk(ctx context.Context, report models.Report) error
}

// MailSender is satisfied by *mailer.Mailer.
type MailSender interface {
	SendHTML(to []string, subject, html string) error
}

type mailHighRiskNotifier struct {
	sender     MailSender
	recipients []string
	baseURL    string
	logger     zerolog.Logger
}

// NewMailHighRiskNotifier sends one alert mail per blocked report.
func NewMailHighRiskNotifier(sender MailSender, recipients []string, baseURL string, logger zerolog.Logger) HighRiskNotifier {
	return &mailHighRiskNotifier{
		sender:     sender,
		recipients: recipients,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.With().Str("component", "high_risk_notifier").Logger(),
	}
}

func (n *mailHighRiskNotifier) NotifyHighRisk(ctx context.Context, report models.Report) error {
	subject := HighRiskSubject(report.ID)
	if err := n.sender.SendHTML(n.recipients, subject, n.body(report)); err != nil {
		return fmt.Errorf("send high risk alert: %w", err)
	}
	n.logger.Info().Uint("report_id", report.ID).Float64("anomaly_score", report.AnomalyScore).Msg("high risk alert sent")
	return nil
}

func (n *mailHighRiskNotifier) body(report models.Report) string {
	providerName := "-"
	if report.Provider != nil && report.Provider.Name != "" {
		providerName = report.Provider.Name
	}
	link := fmt.Sprintf("%s/admin/reports/%d", n.baseURL, report.ID)

	return fmt.Sprintf(`<h2>High risk report detected</h2>
<p><b>Report:</b> #%d</p>
<p><b>Provider:</b> %s</p>
<p><b>Anomaly score:</b> %.0f</p>
<p><b>Content:</b> %s</p>
<p><a href="%s">Open in admin</a></p>`,
		report.ID,
		html.EscapeString(providerName),
		report.AnomalyScore,
		html.EscapeString(report.Content),
		html.EscapeString(link),
	)
}

// HighRiskSubject is the alert subject line for a report.
func HighRiskSubject(reportID uint) string {
	return fmt.Sprintf("[Alert] High risk report (#%d)", reportID)
}

type logHighRiskNotifier struct {
	logger zerolog.Logger
}

// NewLogHighRiskNotifier is used when SMTP is not configured.
func NewLogHighRiskNotifier(logger zerolog.Logger) HighRiskNotifier {
	return &logHighRiskNotifier{logger: logger.With().Str("component", "high_risk_notifier").Logger()}
}

func (n *logHighRiskNotifier) NotifyHighRisk(ctx context.Context, report models.Report) error {
	n.logger.Warn().
		Uint("report_id", report.ID).
		Float64("anomaly_score", report.AnomalyScore).
		Msg("high risk report blocked from automatic processing")
	return nil
}
