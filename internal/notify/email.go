package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const postmarkURL = "https://api.postmarkapp.com/email"

// EmailClient sends transactional mail through the Postmark HTTP API.
type EmailClient struct {
	token string
	from  string
	http  *http.Client
}

func NewEmailClient(serverToken, fromAddress string) *EmailClient {
	return &EmailClient{
		token: serverToken,
		from:  fromAddress,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether the client has credentials to send mail.
func (c *EmailClient) Enabled() bool {
	return c.token != "" && c.from != ""
}

type emailRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

// Send delivers a plain-text email to a single recipient.
func (c *EmailClient) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(emailRequest{
		From:     c.from,
		To:       to,
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postmarkURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("email service returned %d", resp.StatusCode)
	}
	return nil
}
