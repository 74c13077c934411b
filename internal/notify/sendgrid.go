package notify

import (
	"context"
	"fmt"
	"net/http"

	"careercraft/internal/domain"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridSender(apiKey, fromAddr, fromName string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddr),
	}
}

// newSendGridSenderWithHost points the client at a different API host.
func newSendGridSenderWithHost(apiKey, host, fromAddr, fromName string) *SendGridSender {
	req := sendgrid.GetRequest(apiKey, "/v3/mail/send", host)
	req.Method = rest.Post
	return &SendGridSender{
		client: &sendgrid.Client{Request: req},
		from:   mail.NewEmail(fromName, fromAddr),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg domain.Message) (string, error) {
	if msg.To == "" {
		return "", fmt.Errorf("sendgrid: empty recipient")
	}

	m := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail("", msg.To), msg.Text, msg.HTML)
	tracking := mail.NewTrackingSettings()
	tracking.SetClickTracking(mail.NewClickTrackingSetting().SetEnable(true).SetEnableText(true))
	tracking.SetOpenTracking(mail.NewOpenTrackingSetting().SetEnable(true))
	m.SetTrackingSettings(tracking)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return "", fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}

	return http.Header(resp.Headers).Get("X-Message-Id"), nil
}
