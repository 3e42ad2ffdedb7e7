package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const recaptchaEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier checks reCAPTCHA v2 tokens sent with public submissions.
type RecaptchaVerifier struct {
	client   *resty.Client
	secret   string
	endpoint string
}

type recaptchaVerifyResponse struct {
	Success    bool      `json:"success"`
	ChallengeT time.Time `json:"challenge_ts"`
	Hostname   string    `json:"hostname"`
	ErrorCodes []string  `json:"error-codes"`
}

func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		client:   resty.New().SetTimeout(8 * time.Second),
		secret:   strings.TrimSpace(secret),
		endpoint: recaptchaEndpoint,
	}
}

func (v *RecaptchaVerifier) WithEndpoint(endpoint string) *RecaptchaVerifier {
	v.endpoint = endpoint
	return v
}

// Verify returns ok=false with a reason when the token is rejected, and an
// error only when the verification service could not be reached.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, string, error) {
	if v.secret == "" {
		return false, "missing_secret", nil
	}
	tok := strings.TrimSpace(token)
	if tok == "" {
		return false, "missing_token", nil
	}

	form := map[string]string{
		"secret":   v.secret,
		"response": tok,
	}
	if ip := strings.TrimSpace(remoteIP); ip != "" {
		form["remoteip"] = ip
	}

	var out recaptchaVerifyResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&out).
		Post(v.endpoint)
	if err != nil {
		return false, "", fmt.Errorf("recaptcha: verify: %w", err)
	}
	if resp.IsError() {
		return false, "", fmt.Errorf("recaptcha: verify http %d", resp.StatusCode())
	}
	if out.Success {
		return true, "", nil
	}
	if len(out.ErrorCodes) > 0 {
		return false, strings.Join(out.ErrorCodes, ","), nil
	}
	return false, "verification_failed", nil
}
