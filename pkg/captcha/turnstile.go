package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hfiuc/uc-reservation-api/pkg/config"
)

const verifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier checks a proof-of-humanity token before a public submission is
// accepted.
type Verifier interface {
	Verify(ctx context.Context, token string) bool
}

// TurnstileVerifier validates tokens against the Cloudflare Turnstile
// siteverify endpoint. A missing secret disables verification so local
// development does not need outbound network access.
type TurnstileVerifier struct {
	secret string
	client *http.Client
	logger *zap.Logger
}

// NewTurnstile constructs a verifier.
func NewTurnstile(cfg config.TurnstileConfig, logger *zap.Logger) *TurnstileVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TurnstileVerifier{
		secret: cfg.Secret,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Verify returns false on any transport or decode failure; the caller rejects
// the submission rather than trusting an unverifiable token.
func (v *TurnstileVerifier) Verify(ctx context.Context, token string) bool {
	if v.secret == "" {
		return true
	}

	payload, err := json.Marshal(map[string]string{
		"secret":   v.secret,
		"response": token,
	})
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, verifyURL, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Warn("turnstile verify request failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		v.logger.Warn("turnstile verify decode failed", zap.Error(err))
		return false
	}
	return result.Success
}
