package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"autoescuela/internal/apperr"
	"autoescuela/internal/auth"
	"autoescuela/internal/db"
	"autoescuela/internal/entities"
	"autoescuela/internal/logger"
	"autoescuela/internal/repository"
	"autoescuela/internal/service"
)

type PaymentHandler struct {
	WebhookSecret string
	Payments      *service.PaymentService
	Bookings      repository.BookingRepository
	Users         repository.UserRepository
	LessonPrice   int64
}

func NewPaymentHandler(webhookSecret string, payments *service.PaymentService, bookings repository.BookingRepository, users repository.UserRepository, lessonPrice int64) *PaymentHandler {
	return &PaymentHandler{
		WebhookSecret: webhookSecret,
		Payments:      payments,
		Bookings:      bookings,
		Users:         users,
		LessonPrice:   lessonPrice,
	}
}

// CreatePayment opens a checkout session for an existing booking. Amount
// defaults to the fixed lesson price.
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("authentication required"))
		return
	}

	var req entities.CreatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	booking, err := h.Bookings.GetByID(req.BookingID)
	if err != nil {
		respondError(w, apperr.NotFound("booking not found"))
		return
	}
	if booking.StudentID != claims.UserID {
		respondError(w, apperr.NotFound("booking not found"))
		return
	}
	if booking.Status != db.BookingStatusPending {
		respondError(w, apperr.Conflict("booking is not awaiting payment"))
		return
	}

	user, err := h.Users.GetByID(claims.UserID)
	if err != nil || user == nil {
		respondError(w, apperr.Unauthorized("unknown account"))
		return
	}

	// The lesson price is fixed; a client may omit the amount but never
	// pick its own.
	amount := req.AmountCents
	if amount <= 0 {
		amount = h.LessonPrice
	}
	if amount != h.LessonPrice {
		respondError(w, apperr.BadRequest("amount_cents must match the lesson price"))
		return
	}

	resp, err := h.Bookings.GetResponseByID(booking.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	checkout, err := h.Payments.CreateBookingPayment(user, resp, amount, req.Description)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, checkout)
}

// HandleWebhook processes Stripe events.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Get().Error("error reading webhook body", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.WebhookSecret)
	if err != nil {
		logger.Get().Warn("webhook signature verification failed", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
			logger.Get().Warn("malformed checkout.session.completed event", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.Payments.HandleCheckoutCompleted(sess.ID); err != nil {
			logger.Get().Error("failed to apply checkout completion",
				zap.String("session_id", sess.ID), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent != nil && charge.PaymentIntent.ID != "" {
			sessionID, err := sessionIDByPaymentIntent(charge.PaymentIntent.ID)
			if err != nil {
				logger.Get().Warn("no session found for refunded charge",
					zap.String("payment_intent", charge.PaymentIntent.ID), zap.Error(err))
				break
			}
			if err := h.Payments.HandleChargeRefunded(sessionID); err != nil {
				logger.Get().Error("failed to apply refund",
					zap.String("session_id", sessionID), zap.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}

	default:
		logger.Get().Debug("unhandled stripe event", zap.String("type", string(event.Type)))
	}

	w.WriteHeader(http.StatusOK)
}

// sessionIDByPaymentIntent finds the checkout session behind a payment
// intent, needed because refund events only carry the intent.
func sessionIDByPaymentIntent(paymentIntentID string) (string, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Limit = stripe.Int64(1)
	it := session.List(params)
	for it.Next() {
		sess := it.CheckoutSession()
		if sess != nil && sess.ID != "" {
			return sess.ID, nil
		}
	}
	return "", fmt.Errorf("no session found for payment intent %s", paymentIntentID)
}

// GetBookingBySession serves the post-checkout confirmation page lookup.
func (h *PaymentHandler) GetBookingBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		respondError(w, apperr.BadRequest("session_id required"))
		return
	}
	booking, err := h.Payments.GetBookingBySessionID(sessionID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}
