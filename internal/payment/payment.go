package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bronlock/internal/config"
	"bronlock/internal/models"

	"github.com/rs/zerolog"
)

// GatewayClient verifies payment evidence against the external
// gateway. The call is bounded by a sub-second timeout: a slow
// gateway must not stretch the checkout past the lease TTL silently.
type GatewayClient struct {
	url    string
	apiKey string
	client *http.Client
	logger *zerolog.Logger
}

func NewGatewayClient(cfg config.PaymentConfig, logger *zerolog.Logger) *GatewayClient {
	timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond
	return &GatewayClient{
		url:    cfg.GatewayURL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (g *GatewayClient) Verify(ctx context.Context, evidence models.PaymentEvidence) (*models.PaymentVerification, error) {
	body, err := json.Marshal(evidence)
	if err != nil {
		return nil, fmt.Errorf("marshal payment evidence: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"/v1/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn().Int("status", resp.StatusCode).Str("tx", evidence.TransactionID).Msg("payment gateway rejected verification")
		return &models.PaymentVerification{Success: false}, nil
	}

	var verification models.PaymentVerification
	if err := json.NewDecoder(resp.Body).Decode(&verification); err != nil {
		return nil, fmt.Errorf("decode verification response: %w", err)
	}
	return &verification, nil
}

// StaticVerifier trusts the evidence's own success flag. Development
// and test mode only.
type StaticVerifier struct{}

func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{}
}

func (s *StaticVerifier) Verify(ctx context.Context, evidence models.PaymentEvidence) (*models.PaymentVerification, error) {
	return &models.PaymentVerification{
		Success:         evidence.Success,
		Method:          evidence.Method,
		AmountConfirmed: evidence.Amount,
		Reference:       evidence.TransactionID,
	}, nil
}
