package mail

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender implements Sender with the SendGrid v3 API.
type SendGridSender struct {
	apiKey   string
	fromAddr string
	fromName string
}

func NewSendGridSender(apiKey, fromAddr, fromName string) *SendGridSender {
	return &SendGridSender{apiKey: apiKey, fromAddr: fromAddr, fromName: fromName}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if s.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if s.fromAddr == "" {
		return fmt.Errorf("from address is empty")
	}
	if msg.To == "" {
		return ErrNoRecipient
	}

	htmlContent := msg.HTML
	if htmlContent == "" {
		htmlContent = fmt.Sprintf("<pre>%s</pre>", html.EscapeString(msg.Text))
	}
	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(s.fromName, s.fromAddr),
		msg.Subject,
		sgmail.NewEmail(msg.ToName, msg.To),
		msg.Text,
		htmlContent,
	)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	return nil
}
