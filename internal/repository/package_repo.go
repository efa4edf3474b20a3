package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"autoescuela/internal/db"
)

type PackageRepository interface {
	ListActive() ([]db.Package, error)
	GetByID(id int) (*db.Package, error)
	GetBalance(userID int) (int, error)
	// Debit writes a negative ledger entry for a booking, failing with
	// ErrInsufficientCredits when the balance cannot cover it.
	Debit(userID, bookingID, credits int) error
	// Grant writes a positive ledger entry (package purchase, refund...).
	Grant(userID int, packageID *int, bookingID *int, credits int, reason string) error
	// HasDebitForBooking reports whether a booking already consumed credits.
	HasDebitForBooking(bookingID int) (bool, error)
}

type packageRepository struct {
	db *sql.DB
}

func NewPackageRepository(database *sql.DB) PackageRepository {
	return &packageRepository{db: database}
}

func (r *packageRepository) ListActive() ([]db.Package, error) {
	rows, err := r.db.Query(`
		SELECT id, name, credits, price_cents, active
		FROM packages WHERE active = TRUE ORDER BY credits`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []db.Package
	for rows.Next() {
		var p db.Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Credits, &p.PriceCents, &p.Active); err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

func (r *packageRepository) GetByID(id int) (*db.Package, error) {
	var p db.Package
	err := r.db.QueryRow(`SELECT id, name, credits, price_cents, active FROM packages WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Credits, &p.PriceCents, &p.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *packageRepository) GetBalance(userID int) (int, error) {
	var balance int
	err := r.db.QueryRow(`SELECT COALESCE(SUM(delta), 0) FROM credit_entries WHERE user_id = $1`, userID).
		Scan(&balance)
	return balance, err
}

func (r *packageRepository) Debit(userID, bookingID, credits int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Same lock space as booking creation so concurrent debits of one
	// student serialize.
	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock($1, $2)`, lockClassStudent, userID); err != nil {
		return err
	}

	var balance int
	if err := tx.QueryRow(`SELECT COALESCE(SUM(delta), 0) FROM credit_entries WHERE user_id = $1`, userID).Scan(&balance); err != nil {
		return err
	}
	if balance < credits {
		return ErrInsufficientCredits
	}

	_, err = tx.Exec(`
		INSERT INTO credit_entries (user_id, booking_id, delta, reason)
		VALUES ($1, $2, $3, 'booking')`,
		userID, bookingID, -credits)
	if err != nil {
		return fmt.Errorf("error writing credit debit: %w", err)
	}
	return tx.Commit()
}

func (r *packageRepository) Grant(userID int, packageID *int, bookingID *int, credits int, reason string) error {
	_, err := r.db.Exec(`
		INSERT INTO credit_entries (user_id, package_id, booking_id, delta, reason)
		VALUES ($1, $2, $3, $4, $5)`,
		userID, nullableInt(packageID), nullableInt(bookingID), credits, reason)
	return err
}

func (r *packageRepository) HasDebitForBooking(bookingID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM credit_entries WHERE booking_id = $1 AND delta < 0)`, bookingID).
		Scan(&exists)
	return exists, err
}
