package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BillingService sells credit packs and applies webhook credit grants.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, pack string) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type BillingHandler struct {
	billing BillingService
	logger  *zap.Logger
}

func NewBillingHandler(billing BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		billing: billing,
		logger:  logger,
	}
}

type checkoutRequest struct {
	UserID string `json:"user_id"`
	Pack   string `json:"pack"`
}

// Checkout creates a Stripe checkout session for a credit pack.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	url, err := h.billing.CreateCheckoutSession(r.Context(), userID, req.Pack)
	if err != nil {
		h.logger.Error("Failed to create checkout session",
			zap.String("user_id", req.UserID),
			zap.String("pack", req.Pack),
			zap.Error(err))
		http.Error(w, "Failed to create checkout session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"checkout_url": url,
	})
}

// Webhook receives Stripe events. Signature verification happens in the
// billing service; a verification failure is the caller's fault, anything
// else is ours.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		http.Error(w, "Failed to read payload", http.StatusBadRequest)
		return
	}

	if err := h.billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.logger.Error("Webhook processing failed", zap.Error(err))
		http.Error(w, "Webhook error", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}
