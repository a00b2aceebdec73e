package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/medprice-api/internal/models"
)

type capturedMail struct {
	to      []string
	subject string
	body    string
}

type fakeMailSender struct {
	sent []capturedMail
	err  error
}

func (f *fakeMailSender) SendHTML(to []string, subject, html string) error {
	f.sent = append(f.sent, capturedMail{to: to, subject: subject, body: html})
	return f.err
}

func TestMailHighRiskNotifierBuildsAlert(t *testing.T) {
	sender := &fakeMailSender{}
	notifier := NewMailHighRiskNotifier(sender, []string{"ops@medprice.test"}, "https://medprice.test/", zerolog.Nop())

	report := models.Report{
		ID:           42,
		Content:      "price <b>doubled</b>",
		AnomalyScore: 90,
		Provider:     &models.Provider{Name: "Gangnam Clinic"},
	}
	require.NoError(t, notifier.NotifyHighRisk(context.Background(), report))

	require.Len(t, sender.sent, 1)
	mail := sender.sent[0]
	require.Equal(t, []string{"ops@medprice.test"}, mail.to)
	require.Equal(t, "[Alert] High risk report (#42)", mail.subject)
	require.Contains(t, mail.body, "https://medprice.test/admin/reports/42")
	require.Contains(t, mail.body, "Gangnam Clinic")
	require.Contains(t, mail.body, "&lt;b&gt;doubled&lt;/b&gt;")
}

func TestMailHighRiskNotifierWrapsSendError(t *testing.T) {
	sender := &fakeMailSender{err: errors.New("smtp down")}
	notifier := NewMailHighRiskNotifier(sender, []string{"ops@medprice.test"}, "", zerolog.Nop())

	err := notifier.NotifyHighRisk(context.Background(), models.Report{ID: 1})
	require.ErrorContains(t, err, "smtp down")
}

func TestLogHighRiskNotifierNeverFails(t *testing.T) {
	require.NoError(t, NewLogHighRiskNotifier(zerolog.Nop()).NotifyHighRisk(context.Background(), models.Report{ID: 1}))
}
