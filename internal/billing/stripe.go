// Package billing sells prepaid credit packs through Stripe Checkout and
// grants the purchased credits when the payment webhook lands.
package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/config"
)

const (
	PackSmall  = "small"
	PackMedium = "medium"
	PackLarge  = "large"
)

// packCredits maps a credit pack to the number of credits it grants.
var packCredits = map[string]int64{
	PackSmall:  50,
	PackMedium: 150,
	PackLarge:  500,
}

// Store is the balance surface billing writes through. The grant must be
// additive: the same balance row is debited concurrently by pipeline runs.
type Store interface {
	AddCredits(ctx context.Context, stripeCustomerID string, amount int64) error
	GetStripeCustomerID(ctx context.Context, userID uuid.UUID) (string, error)
}

type Service struct {
	cfg    config.BillingConfig
	store  Store
	logger *zap.Logger
}

func NewService(cfg config.BillingConfig, store Store, logger *zap.Logger) *Service {
	stripe.Key = cfg.StripeSecretKey
	return &Service{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// CreditsForPack returns the credit amount a pack grants, or 0 for an
// unknown pack.
func CreditsForPack(pack string) int64 {
	return packCredits[pack]
}

func (s *Service) priceID(pack string) string {
	switch pack {
	case PackSmall:
		return s.cfg.SmallPackPriceID
	case PackMedium:
		return s.cfg.MediumPackPriceID
	case PackLarge:
		return s.cfg.LargePackPriceID
	default:
		return ""
	}
}

// CreateCheckoutSession creates a payment-mode checkout session for a credit
// pack and returns the URL to redirect the user to.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, pack string) (string, error) {
	priceID := s.priceID(pack)
	if priceID == "" {
		return "", fmt.Errorf("unknown credit pack: %s", pack)
	}

	customerID, err := s.store.GetStripeCustomerID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve stripe customer: %w", err)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		Metadata: map[string]string{
			"user_id": userID.String(),
			"pack":    pack,
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	if sess.URL == "" {
		return "", fmt.Errorf("checkout session %s created without URL", sess.ID)
	}

	s.logger.Info("Checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID.String()),
		zap.String("pack", pack))
	return sess.URL, nil
}

// HandleWebhook verifies and processes a Stripe webhook delivery. Credits
// are granted on checkout.session.completed; all other events are ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	// Stripe API versions are backwards compatible; don't reject events
	// emitted under a newer version than the SDK pins.
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	if event.Type != "checkout.session.completed" {
		s.logger.Info("Ignoring webhook event", zap.String("event_type", string(event.Type)))
		return nil
	}

	var sess struct {
		ID         string            `json:"id"`
		CustomerID string            `json:"customer"`
		Metadata   map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	pack := sess.Metadata["pack"]
	credits := CreditsForPack(pack)
	if credits == 0 {
		s.logger.Warn("Checkout session completed without a known credit pack, skipping",
			zap.String("session_id", sess.ID),
			zap.String("pack", pack))
		return nil
	}
	if sess.CustomerID == "" {
		return fmt.Errorf("checkout session %s has no customer", sess.ID)
	}

	if err := s.store.AddCredits(ctx, sess.CustomerID, credits); err != nil {
		return fmt.Errorf("failed to grant credits: %w", err)
	}

	s.logger.Info("Credits granted",
		zap.String("session_id", sess.ID),
		zap.String("customer_id", sess.CustomerID),
		zap.Int64("credits", credits))
	return nil
}
