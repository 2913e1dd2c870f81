package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/noah-isme/fairu-api/pkg/config"
)

// ErrRejected is returned when the provider answers but does not accept the token.
var ErrRejected = errors.New("captcha rejected")

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Recaptcha verifies reCAPTCHA v2 tokens against the siteverify endpoint.
type Recaptcha struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// NewRecaptcha builds a verifier from configuration.
func NewRecaptcha(cfg config.RecaptchaConfig) *Recaptcha {
	return &Recaptcha{
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Verify reports nil only when the provider accepted token.
func (r *Recaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	form := url.Values{}
	form.Set("secret", r.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("siteverify status %d", resp.StatusCode)
	}

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode siteverify response: %w", err)
	}
	if !body.Success {
		return fmt.Errorf("%w: %s", ErrRejected, strings.Join(body.ErrorCodes, ","))
	}
	return nil
}
