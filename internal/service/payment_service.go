package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"autoescuela/internal/apperr"
	"autoescuela/internal/db"
	"autoescuela/internal/entities"
	"autoescuela/internal/logger"
	"autoescuela/internal/repository"
)

type checkoutGateway interface {
	CreateCheckoutSession(amountCents int64, currency, description, customerEmail string) (string, string, error)
	RefundPaymentBySessionID(sessionID string) error
}

// PaymentService owns the payment records around Stripe Checkout:
// creating sessions for bookings and package purchases, and applying
// webhook outcomes.
type PaymentService struct {
	Payments repository.PaymentRepository
	Bookings repository.BookingRepository
	Packages repository.PackageRepository
	Gateway  checkoutGateway
	Notifier BookingNotifier
	Slots    slotInvalidator
	Currency string
}

// CreateBookingPayment opens a checkout session for a booking and records
// the pending payment.
func (s *PaymentService) CreateBookingPayment(user *db.User, booking *entities.BookingResponse, amountCents int64, description string) (*entities.PaymentSessionResponse, error) {
	if description == "" {
		description = fmt.Sprintf("Driving lesson on %s", booking.StartTime.Format("02 Jan 2006 15:04"))
	}

	sessionURL, sessionID, err := s.Gateway.CreateCheckoutSession(amountCents, s.Currency, description, user.Email)
	if err != nil {
		return nil, err
	}

	payment := &db.Payment{
		UserID:          user.ID,
		BookingID:       &booking.ID,
		AmountCents:     amountCents,
		Currency:        s.Currency,
		Description:     description,
		StripeSessionID: sessionID,
		Status:          db.PaymentStatusPending,
	}
	if err := s.Payments.Create(payment); err != nil {
		return nil, err
	}

	return &entities.PaymentSessionResponse{RedirectURL: sessionURL, SessionID: sessionID}, nil
}

// CreatePackagePayment opens a checkout session for a credit package.
// Credits are only granted once the webhook confirms the session.
func (s *PaymentService) CreatePackagePayment(user *db.User, pkg *db.Package) (*entities.PaymentSessionResponse, error) {
	description := fmt.Sprintf("%s (%d lesson credits)", pkg.Name, pkg.Credits)
	sessionURL, sessionID, err := s.Gateway.CreateCheckoutSession(pkg.PriceCents, s.Currency, description, user.Email)
	if err != nil {
		return nil, err
	}

	payment := &db.Payment{
		UserID:          user.ID,
		PackageID:       &pkg.ID,
		AmountCents:     pkg.PriceCents,
		Currency:        s.Currency,
		Description:     description,
		StripeSessionID: sessionID,
		Status:          db.PaymentStatusPending,
	}
	if err := s.Payments.Create(payment); err != nil {
		return nil, err
	}

	return &entities.PaymentSessionResponse{RedirectURL: sessionURL, SessionID: sessionID}, nil
}

// HandleCheckoutCompleted applies a successful checkout: the payment is
// marked succeeded, a booking payment confirms the booking, a package
// payment grants its credits.
func (s *PaymentService) HandleCheckoutCompleted(sessionID string) error {
	payment, err := s.Payments.GetBySessionID(sessionID)
	if err != nil {
		return err
	}
	if payment.Status == db.PaymentStatusSucceeded {
		// Stripe retries webhooks; a replay must not double-apply.
		return nil
	}
	if err := s.Payments.UpdateStatusBySessionID(sessionID, db.PaymentStatusSucceeded); err != nil {
		return err
	}

	switch {
	case payment.BookingID != nil:
		if err := s.Bookings.UpdateStatus(*payment.BookingID, db.BookingStatusConfirmed); err != nil {
			return err
		}
		resp, err := s.Bookings.GetResponseByID(*payment.BookingID)
		if err != nil {
			return err
		}
		if s.Notifier != nil {
			s.Notifier.SendBookingEmail(*resp, db.BookingStatusConfirmed)
			s.Notifier.SendBookingSMS(*resp, db.BookingStatusConfirmed)
		}
	case payment.PackageID != nil:
		pkg, err := s.Packages.GetByID(*payment.PackageID)
		if err != nil {
			return err
		}
		if pkg == nil {
			return apperr.Internal("paid package no longer exists")
		}
		if err := s.Packages.Grant(payment.UserID, &pkg.ID, nil, pkg.Credits, "package purchase"); err != nil {
			return err
		}
		logger.Get().Info("package credits granted",
			zap.Int("user_id", payment.UserID),
			zap.Int("package_id", pkg.ID),
			zap.Int("credits", pkg.Credits))
	}
	return nil
}

// HandleChargeRefunded applies a Stripe-side refund: the payment is
// marked refunded and the associated booking canceled.
func (s *PaymentService) HandleChargeRefunded(sessionID string) error {
	payment, err := s.Payments.GetBySessionID(sessionID)
	if err != nil {
		return err
	}
	if payment.Status == db.PaymentStatusRefunded {
		// Stripe retries webhooks; a replay must not double-apply.
		return nil
	}
	if err := s.Payments.UpdateStatusBySessionID(sessionID, db.PaymentStatusRefunded); err != nil {
		return err
	}
	if payment.BookingID != nil {
		booking, err := s.Bookings.GetByID(*payment.BookingID)
		if err == nil && booking.Status != db.BookingStatusCanceled {
			if err := s.Bookings.UpdateStatus(*payment.BookingID, db.BookingStatusCanceled); err != nil {
				return err
			}
			if s.Slots != nil {
				s.Slots.InvalidateSlots(booking.InstructorID, booking.StartTime)
			}
		}
	}
	return nil
}

// RefundBooking refunds the succeeded payment of a booking, if any.
func (s *PaymentService) RefundBooking(bookingID int) error {
	payment, err := s.Payments.GetSucceededByBookingID(bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			// Nothing was paid (e.g. checkout abandoned), nothing to refund.
			return nil
		}
		return err
	}
	if err := s.Gateway.RefundPaymentBySessionID(payment.StripeSessionID); err != nil {
		return err
	}
	return s.Payments.UpdateStatusBySessionID(payment.StripeSessionID, db.PaymentStatusRefunded)
}

// GetBookingBySessionID resolves the booking behind a checkout session,
// used by the post-checkout confirmation page.
func (s *PaymentService) GetBookingBySessionID(sessionID string) (*entities.BookingResponse, error) {
	payment, err := s.Payments.GetBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, err
	}
	if payment.BookingID == nil {
		return nil, apperr.NotFound("payment is not linked to a booking")
	}
	return s.Bookings.GetResponseByID(*payment.BookingID)
}
