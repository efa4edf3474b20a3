package entities

type CreatePaymentRequest struct {
	BookingID   int    `json:"booking_id" validate:"required"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
}

type PaymentSessionResponse struct {
	RedirectURL string `json:"redirect_url,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}
