package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	paymentsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/payments"
	"github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/dto"
	httperrors "github.com/CrossGen-ai/ai-in-4-sub002/internal/transport/http/errors"
)

const webhookBodyLimit = 65536

type WebhookHandler struct {
	payments      *paymentsvc.Service
	webhookSecret string
	logger        *zap.Logger
}

func NewWebhookHandler(payments *paymentsvc.Service, webhookSecret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WebhookHandler{
		payments:      payments,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// Stripe handles provider webhooks. Signature verification is the gate for
// everything behind it: an unverifiable request is rejected before any
// payload parsing. Verified events that fail validation are acknowledged
// with 200 so the provider stops retrying a defect on their side; only
// infrastructure failures return 500 and provoke a retry.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}
	if h.webhookSecret == "" {
		h.logger.Error("stripe webhook secret is not configured")
		writeInternal(w, "WEBHOOK_NOT_CONFIGURED", "webhook secret is not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "failed to read request body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get("Stripe-Signature"),
		h.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.logger.Warn("stripe webhook signature verification failed", zap.Error(err))
		writeBadRequest(w, "INVALID_SIGNATURE", "webhook signature verification failed")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		h.paymentSucceeded(w, r, event)
	case "charge.refunded":
		h.chargeRefunded(w, r, event)
	default:
		h.logger.Info("ignoring stripe event", zap.String("type", string(event.Type)))
		httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{Received: true})
	}
}

func (h *WebhookHandler) paymentSucceeded(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		h.logger.Warn("stripe payment intent payload unmarshal failed",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{Received: true})
		return
	}

	outcome, err := h.payments.ConfirmPaymentSucceeded(r.Context(), paymentsvc.Event{
		PaymentIntentID: intent.ID,
		Metadata:        intent.Metadata,
	})
	if err != nil {
		h.logger.Error("payment confirmation failed",
			zap.String("payment_intent_id", intent.ID),
			zap.Error(err),
		)
		writeInternal(w, "INTERNAL_ERROR", "failed to process payment event")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{Received: true, Outcome: string(outcome)})
}

func (h *WebhookHandler) chargeRefunded(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		h.logger.Warn("stripe charge payload unmarshal failed",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{Received: true})
		return
	}

	paymentIntentID := ""
	if charge.PaymentIntent != nil {
		paymentIntentID = charge.PaymentIntent.ID
	}

	outcome, err := h.payments.ConfirmChargeRefunded(r.Context(), paymentIntentID)
	if err != nil {
		h.logger.Error("refund processing failed",
			zap.String("payment_intent_id", paymentIntentID),
			zap.Error(err),
		)
		writeInternal(w, "INTERNAL_ERROR", "failed to process refund event")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{Received: true, Outcome: string(outcome)})
}
