package billing

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/config"
)

const testWebhookSecret = "whsec_test_secret"

type fakeBillingStore struct {
	grants     map[string]int64
	customerID string
}

func newFakeBillingStore() *fakeBillingStore {
	return &fakeBillingStore{
		grants:     make(map[string]int64),
		customerID: "cus_test",
	}
}

func (s *fakeBillingStore) AddCredits(ctx context.Context, stripeCustomerID string, amount int64) error {
	s.grants[stripeCustomerID] += amount
	return nil
}

func (s *fakeBillingStore) GetStripeCustomerID(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.customerID, nil
}

func newTestService(store Store) *Service {
	return NewService(config.BillingConfig{
		StripeWebhookSecret: testWebhookSecret,
		SmallPackPriceID:    "price_small",
		MediumPackPriceID:   "price_medium",
		LargePackPriceID:    "price_large",
		SuccessURL:          "http://localhost/billing/success",
		CancelURL:           "http://localhost/billing/cancel",
	}, store, zap.NewNop())
}

// signPayload builds a Stripe-Signature header the way Stripe's servers do.
func signPayload(payload []byte) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func TestCreditsForPack(t *testing.T) {
	assert.Equal(t, int64(50), CreditsForPack(PackSmall))
	assert.Equal(t, int64(150), CreditsForPack(PackMedium))
	assert.Equal(t, int64(500), CreditsForPack(PackLarge))
	assert.Equal(t, int64(0), CreditsForPack("enterprise"))
}

func TestCreateCheckoutSessionRejectsUnknownPack(t *testing.T) {
	svc := newTestService(newFakeBillingStore())

	_, err := svc.CreateCheckoutSession(context.Background(), uuid.New(), "enterprise")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown credit pack")
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	store := newFakeBillingStore()
	svc := newTestService(store)

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=deadbeef")

	require.Error(t, err)
	assert.Empty(t, store.grants)
}

func TestHandleWebhookIgnoresUnrelatedEvents(t *testing.T) {
	store := newFakeBillingStore()
	svc := newTestService(store)

	payload := []byte(`{"id":"evt_1","object":"event","type":"invoice.paid","data":{"object":{}}}`)
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload))

	require.NoError(t, err)
	assert.Empty(t, store.grants)
}

func TestHandleWebhookGrantsCreditsOnCompletedCheckout(t *testing.T) {
	store := newFakeBillingStore()
	svc := newTestService(store)

	payload := []byte(`{
		"id": "evt_2",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"customer": "cus_abc",
				"metadata": {"user_id": "9f9e2c3a-0000-0000-0000-000000000000", "pack": "medium"}
			}
		}
	}`)
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload))

	require.NoError(t, err)
	assert.Equal(t, int64(150), store.grants["cus_abc"])
}

func TestHandleWebhookSkipsUnknownPack(t *testing.T) {
	store := newFakeBillingStore()
	svc := newTestService(store)

	payload := []byte(`{
		"id": "evt_3",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_2",
				"customer": "cus_abc",
				"metadata": {"pack": "enterprise"}
			}
		}
	}`)
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload))

	require.NoError(t, err)
	assert.Empty(t, store.grants)
}

func TestHandleWebhookRejectsMissingCustomer(t *testing.T) {
	store := newFakeBillingStore()
	svc := newTestService(store)

	payload := []byte(`{
		"id": "evt_4",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_3",
				"metadata": {"pack": "small"}
			}
		}
	}`)
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload))

	require.Error(t, err)
	assert.Empty(t, store.grants)
}
