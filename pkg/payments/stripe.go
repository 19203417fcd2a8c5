package payments

import (
	"abclisting/pkg/config"
	"abclisting/pkg/logger"
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/charge"
	"github.com/stripe/stripe-go/v76/oauth"
)

type StripeClient struct {
	charges        charge.Client
	oauth          oauth.Client
	clientID       string
	currency       string
	feeBasisPoints int
	log            *logger.Logger
}

var (
	_ Charger   = (*StripeClient)(nil)
	_ Connector = (*StripeClient)(nil)
)

func NewStripeClient(cfg *config.Config) *StripeClient {
	return &StripeClient{
		charges:        charge.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.StripeSecretKey},
		oauth:          oauth.Client{B: stripe.GetBackend(stripe.ConnectBackend), Key: cfg.StripeSecretKey},
		clientID:       cfg.StripeClientID,
		currency:       cfg.Currency,
		feeBasisPoints: cfg.StripeFeeBasisPoints,
		log:            cfg.Log,
	}
}

// Charge creates a direct charge on the host's connected account. The
// idempotency key makes a retried request return the original charge.
func (s *StripeClient) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if s.charges.Key == "" {
		return nil, ErrNotConfigured
	}
	if req.Currency == "" {
		req.Currency = s.currency
	}

	fee := PlatformFee(req.Amount, s.feeBasisPoints)
	params, err := buildChargeParams(ctx, req, fee)
	if err != nil {
		return nil, err
	}

	ch, err := s.charges.New(params)
	if err != nil {
		return nil, classifyStripeError(err)
	}
	if ch.Status != stripe.ChargeStatusSucceeded {
		return nil, fmt.Errorf("%w: charge %s ended with status %s", ErrChargeFailed, ch.ID, ch.Status)
	}

	s.log.Info("Stripe charge succeeded",
		"charge_id", ch.ID,
		"amount", ch.Amount,
		"fee", fee,
		"idempotency_key", req.IdempotencyKey,
	)
	return &Charge{ID: ch.ID, Amount: ch.Amount, Fee: fee, Status: string(ch.Status)}, nil
}

func (s *StripeClient) Connect(ctx context.Context, code string) (string, error) {
	if s.oauth.Key == "" {
		return "", ErrNotConfigured
	}
	params := &stripe.OAuthTokenParams{
		GrantType: stripe.String("authorization_code"),
		Code:      stripe.String(code),
	}
	params.Context = ctx

	token, err := s.oauth.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	if token.StripeUserID == "" {
		return "", fmt.Errorf("%w: no account id in response", ErrConnectFailed)
	}
	return token.StripeUserID, nil
}

func (s *StripeClient) Disconnect(ctx context.Context, walletID string) error {
	if s.oauth.Key == "" || s.clientID == "" {
		return ErrNotConfigured
	}
	params := &stripe.DeauthorizeParams{
		ClientID:     stripe.String(s.clientID),
		StripeUserID: stripe.String(walletID),
	}
	params.Context = ctx

	if _, err := s.oauth.Del(params); err != nil {
		return fmt.Errorf("failed to deauthorize wallet: %w", err)
	}
	return nil
}

func buildChargeParams(ctx context.Context, req ChargeRequest, fee int64) (*stripe.ChargeParams, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrChargeFailed, req.Amount)
	}
	if req.Destination == "" {
		return nil, fmt.Errorf("%w: destination wallet is required", ErrChargeFailed)
	}

	params := &stripe.ChargeParams{
		Amount:               stripe.Int64(req.Amount),
		Currency:             stripe.String(req.Currency),
		ApplicationFeeAmount: stripe.Int64(fee),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if err := params.SetSource(req.Source); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChargeFailed, err)
	}
	params.SetStripeAccount(req.Destination)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx
	return params, nil
}

func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		return fmt.Errorf("%w: %s", ErrChargeDeclined, stripeErr.Msg)
	}
	return fmt.Errorf("%w: %v", ErrChargeFailed, err)
}
