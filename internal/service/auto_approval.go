package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
)

// Decider evaluates a pending reservation and recommends a decision. An empty
// status means no recommendation; the reservation stays with its human
// approvers.
type Decider interface {
	Decide(ctx context.Context, reservation models.Reservation) (models.ReservationStatus, string, error)
}

// HTTPDecider consults an external policy endpoint.
type HTTPDecider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPDecider constructs the decider.
func NewHTTPDecider(endpoint, apiKey string, timeout time.Duration) *HTTPDecider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDecider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type deciderResponse struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// Decide posts the reservation to the policy endpoint. The endpoint answers
// with approve, reject or skip.
func (d *HTTPDecider) Decide(ctx context.Context, reservation models.Reservation) (models.ReservationStatus, string, error) {
	payload, err := json.Marshal(reservation)
	if err != nil {
		return "", "", fmt.Errorf("marshal reservation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("build decider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("call decider: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("decider returned status %d", resp.StatusCode)
	}

	var decision deciderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return "", "", fmt.Errorf("decode decider response: %w", err)
	}

	switch decision.Decision {
	case "approve":
		return models.StatusApproved, decision.Reason, nil
	case "reject":
		return models.StatusRejected, decision.Reason, nil
	default:
		return "", "", nil
	}
}

// AutoApprover applies decider recommendations through the regular approval
// pipeline, acting as the configured system identity. The system admin needs
// an approver grant on a room for its decisions there to stick.
type AutoApprover struct {
	decider     Decider
	approvals   *ApprovalService
	admins      adminStore
	systemEmail string
	logger      *zap.Logger
}

// NewAutoApprover constructs the evaluator.
func NewAutoApprover(decider Decider, approvals *ApprovalService, admins adminStore, systemEmail string, logger *zap.Logger) *AutoApprover {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoApprover{
		decider:     decider,
		approvals:   approvals,
		admins:      admins,
		systemEmail: systemEmail,
		logger:      logger,
	}
}

// Evaluate asks the decider and applies any recommendation. A reservation the
// system identity cannot decide is left for human review.
func (a *AutoApprover) Evaluate(ctx context.Context, reservation models.Reservation) error {
	status, reason, err := a.decider.Decide(ctx, reservation)
	if err != nil {
		return fmt.Errorf("evaluate reservation %d: %w", reservation.ID, err)
	}
	if status == "" {
		return nil
	}
	if status == models.StatusRejected && reason == "" {
		reason = "rejected by automated policy"
	}

	system, err := a.admins.GetByEmail(ctx, a.systemEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			a.logger.Warn("system admin identity missing", zap.String("email", a.systemEmail))
			return nil
		}
		return fmt.Errorf("load system admin: %w", err)
	}

	if _, err := a.approvals.Decide(ctx, reservation.ID, *system, status, reason); err != nil {
		appErr := appErrors.FromError(err)
		switch appErr.Code {
		case appErrors.ErrForbidden.Code, appErrors.ErrAlreadyDecided.Code:
			a.logger.Info("auto-decision skipped",
				zap.Int64("reservation", reservation.ID), zap.String("code", appErr.Code))
			return nil
		}
		return err
	}
	a.logger.Info("auto-decision applied",
		zap.Int64("reservation", reservation.ID), zap.String("status", string(status)))
	return nil
}
