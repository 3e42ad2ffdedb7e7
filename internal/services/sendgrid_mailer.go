package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/devotee-memorial/backend/internal/models"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SubmissionNotifier is told about new profiles awaiting review.
type SubmissionNotifier interface {
	ProfileSubmitted(ctx context.Context, p *models.Profile) error
}

// SendGridMailer emails moderators when a profile is submitted.
type SendGridMailer struct {
	client    *resty.Client
	apiKey    string
	fromEmail string
	toEmail   string
	reviewURL string
	endpoint  string
}

func NewSendGridMailer(apiKey, fromEmail, toEmail, reviewURL string) *SendGridMailer {
	return &SendGridMailer{
		client:    resty.New().SetTimeout(10 * time.Second),
		apiKey:    strings.TrimSpace(apiKey),
		fromEmail: strings.TrimSpace(fromEmail),
		toEmail:   strings.TrimSpace(toEmail),
		reviewURL: strings.TrimSpace(reviewURL),
		endpoint:  sendGridEndpoint,
	}
}

// WithEndpoint points the mailer at another mail-send URL.
func (m *SendGridMailer) WithEndpoint(endpoint string) *SendGridMailer {
	m.endpoint = endpoint
	return m
}

type sendGridEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To         []sendGridEmailAddress `json:"to"`
	Subject    string                 `json:"subject"`
	CustomArgs map[string]string      `json:"custom_args,omitempty"`
}

type sendGridMailSendRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmailAddress      `json:"from"`
	Content          []sendGridContent         `json:"content"`
}

func (m *SendGridMailer) ProfileSubmitted(ctx context.Context, p *models.Profile) error {
	if m.apiKey == "" {
		return fmt.Errorf("sendgrid: missing SENDGRID_API_KEY")
	}
	if m.fromEmail == "" || m.toEmail == "" {
		return fmt.Errorf("sendgrid: missing notification addresses")
	}

	var body strings.Builder
	fmt.Fprintf(&body, "A new memorial profile is awaiting review.\n\n")
	fmt.Fprintf(&body, "Name: %s\nYears: %s\nLocation: %s\n", p.Name, p.Years, p.Location)
	fmt.Fprintf(&body, "Submitted by: %s (%s)\n", p.ContributorName, p.ContributorPhone)
	if m.reviewURL != "" {
		fmt.Fprintf(&body, "\nReview: %s\n", m.reviewURL)
	}

	reqBody := sendGridMailSendRequest{
		Personalizations: []sendGridPersonalization{
			{
				To:         []sendGridEmailAddress{{Email: m.toEmail}},
				Subject:    fmt.Sprintf("New memorial profile: %s", p.Name),
				CustomArgs: map[string]string{"profile_id": p.ID},
			},
		},
		From:    sendGridEmailAddress{Email: m.fromEmail, Name: "Memorial Submissions"},
		Content: []sendGridContent{{Type: "text/plain", Value: body.String()}},
	}

	resp, err := m.client.R().
		SetContext(ctx).
		SetAuthToken(m.apiKey).
		SetBody(reqBody).
		Post(m.endpoint)
	if err != nil {
		return fmt.Errorf("sendgrid: mail send: %w", err)
	}
	// SendGrid returns 202 Accepted on success.
	if resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("sendgrid: mail send http %d", resp.StatusCode())
	}
	return nil
}
