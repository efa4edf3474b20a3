package repository

import (
	"database/sql"
	"errors"
	"time"

	"autoescuela/internal/db"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRepository interface {
	Create(p *db.Payment) error
	GetBySessionID(sessionID string) (*db.Payment, error)
	UpdateStatusBySessionID(sessionID, status string) error
	GetSucceededByBookingID(bookingID int) (*db.Payment, error)
}

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(database *sql.DB) PaymentRepository {
	return &paymentRepository{db: database}
}

func (r *paymentRepository) Create(p *db.Payment) error {
	return r.db.QueryRow(`
		INSERT INTO payments
		(user_id, booking_id, package_id, amount_cents, currency, description, stripe_session_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, created_at, updated_at`,
		p.UserID, nullableInt(p.BookingID), nullableInt(p.PackageID),
		p.AmountCents, p.Currency, p.Description, p.StripeSessionID, p.Status, time.Now().UTC()).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *paymentRepository) GetBySessionID(sessionID string) (*db.Payment, error) {
	var p db.Payment
	var bookingID, packageID sql.NullInt64
	err := r.db.QueryRow(`
		SELECT id, user_id, booking_id, package_id, amount_cents, currency, description, stripe_session_id, status, created_at, updated_at
		FROM payments WHERE stripe_session_id = $1`, sessionID).
		Scan(&p.ID, &p.UserID, &bookingID, &packageID, &p.AmountCents, &p.Currency,
			&p.Description, &p.StripeSessionID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if bookingID.Valid {
		id := int(bookingID.Int64)
		p.BookingID = &id
	}
	if packageID.Valid {
		id := int(packageID.Int64)
		p.PackageID = &id
	}
	return &p, nil
}

func (r *paymentRepository) UpdateStatusBySessionID(sessionID, status string) error {
	result, err := r.db.Exec(`
		UPDATE payments SET status = $2, updated_at = $3 WHERE stripe_session_id = $1`,
		sessionID, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *paymentRepository) GetSucceededByBookingID(bookingID int) (*db.Payment, error) {
	var p db.Payment
	var bid, pid sql.NullInt64
	err := r.db.QueryRow(`
		SELECT id, user_id, booking_id, package_id, amount_cents, currency, description, stripe_session_id, status, created_at, updated_at
		FROM payments WHERE booking_id = $1 AND status = 'succeeded'
		ORDER BY created_at DESC LIMIT 1`, bookingID).
		Scan(&p.ID, &p.UserID, &bid, &pid, &p.AmountCents, &p.Currency,
			&p.Description, &p.StripeSessionID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if bid.Valid {
		id := int(bid.Int64)
		p.BookingID = &id
	}
	if pid.Valid {
		id := int(pid.Int64)
		p.PackageID = &id
	}
	return &p, nil
}
