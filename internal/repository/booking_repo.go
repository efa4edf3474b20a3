package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"autoescuela/internal/db"
	"autoescuela/internal/entities"
)

var (
	// ErrSlotTaken means the instructor, student or vehicle already has a
	// live booking overlapping the requested window.
	ErrSlotTaken = errors.New("time slot is no longer available")
	// ErrInsufficientCredits means the student's ledger balance cannot
	// cover the requested debit.
	ErrInsufficientCredits = errors.New("not enough credits")
	ErrBookingNotFound     = errors.New("booking not found")
)

// Advisory lock key spaces for pg_advisory_xact_lock(int4, int4).
const (
	lockClassInstructor = 1
	lockClassStudent    = 2
)

type BookingRepository interface {
	// Create inserts the booking after an overlap check, all in one
	// transaction. When consumeCredit is true a -1 ledger entry is written
	// in the same transaction; the whole booking fails on insufficient
	// balance.
	Create(b *db.Booking, consumeCredit bool) error
	GetByCode(code string) (*db.Booking, error)
	GetByID(id int) (*db.Booking, error)
	GetResponseByCode(code string) (*entities.BookingResponse, error)
	GetResponseByID(id int) (*entities.BookingResponse, error)
	ListByStudent(studentID, limit, offset int) (*entities.BookingsList, error)
	ListAdmin(date, status string, instructorID, limit, offset int) (*entities.BookingsList, error)
	ListLiveByInstructorBetween(instructorID int, from, to time.Time) ([]db.Booking, error)
	UpdateStatus(id int, status string) error
}

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(database *sql.DB) BookingRepository {
	return &bookingRepository{db: database}
}

func (r *bookingRepository) Create(b *db.Booking, consumeCredit bool) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Serialize concurrent creates touching the same instructor or student
	// so the overlap check below cannot race.
	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock($1, $2)`, lockClassInstructor, b.InstructorID); err != nil {
		return err
	}
	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock($1, $2)`, lockClassStudent, b.StudentID); err != nil {
		return err
	}

	var conflicts int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM bookings
		WHERE status IN ('pending', 'confirmed')
		  AND start_time < $1 AND end_time > $2
		  AND (instructor_id = $3
			OR student_id = $4
			OR ($5::int IS NOT NULL AND vehicle_id = $5))`,
		b.EndTime, b.StartTime, b.InstructorID, b.StudentID, nullableInt(b.VehicleID)).
		Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("error checking booking conflicts: %w", err)
	}
	if conflicts > 0 {
		return ErrSlotTaken
	}

	err = tx.QueryRow(`
		INSERT INTO bookings
		(code, student_id, instructor_id, location_id, vehicle_id, start_time, end_time, status, payment_method, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id, created_at, updated_at`,
		b.Code, b.StudentID, b.InstructorID, b.LocationID, nullableInt(b.VehicleID),
		b.StartTime, b.EndTime, b.Status, b.PaymentMethod, b.Notes, time.Now().UTC()).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting booking: %w", err)
	}

	if consumeCredit {
		var balance int
		if err := tx.QueryRow(`SELECT COALESCE(SUM(delta), 0) FROM credit_entries WHERE user_id = $1`, b.StudentID).Scan(&balance); err != nil {
			return err
		}
		if balance < 1 {
			return ErrInsufficientCredits
		}
		_, err := tx.Exec(`
			INSERT INTO credit_entries (user_id, booking_id, delta, reason)
			VALUES ($1, $2, -1, 'booking')`,
			b.StudentID, b.ID)
		if err != nil {
			return fmt.Errorf("error consuming credit: %w", err)
		}
	}

	return tx.Commit()
}

const bookingSelect = `
	SELECT b.id, b.code,
	       u.first_name || ' ' || u.last_name, u.email, u.phone,
	       b.instructor_id, i.first_name || ' ' || i.last_name,
	       b.location_id, l.name,
	       b.vehicle_id,
	       COALESCE(v.make || ' ' || v.model || ' (' || v.registration || ')', ''),
	       b.start_time, b.end_time, b.status, b.payment_method, COALESCE(b.notes, ''),
	       b.created_at, b.updated_at
	FROM bookings b
	JOIN users u ON u.id = b.student_id
	JOIN instructors i ON i.id = b.instructor_id
	JOIN locations l ON l.id = b.location_id
	LEFT JOIN vehicles v ON v.id = b.vehicle_id`

func scanBookingResponse(row interface{ Scan(...interface{}) error }) (*entities.BookingResponse, error) {
	var res entities.BookingResponse
	var vehicleID sql.NullInt64
	err := row.Scan(
		&res.ID, &res.Code,
		&res.StudentName, &res.StudentEmail, &res.StudentPhone,
		&res.InstructorID, &res.InstructorName,
		&res.LocationID, &res.LocationName,
		&vehicleID, &res.VehicleName,
		&res.StartTime, &res.EndTime, &res.Status, &res.PaymentMethod, &res.Notes,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if vehicleID.Valid {
		id := int(vehicleID.Int64)
		res.VehicleID = &id
	}
	return &res, nil
}

func (r *bookingRepository) GetByCode(code string) (*db.Booking, error) {
	return r.getOne(`WHERE code = $1`, code)
}

func (r *bookingRepository) GetByID(id int) (*db.Booking, error) {
	return r.getOne(`WHERE id = $1`, id)
}

func (r *bookingRepository) getOne(where string, arg interface{}) (*db.Booking, error) {
	var b db.Booking
	var vehicleID sql.NullInt64
	var remindedAt sql.NullTime
	err := r.db.QueryRow(`
		SELECT id, code, student_id, instructor_id, location_id, vehicle_id,
		       start_time, end_time, status, payment_method, COALESCE(notes, ''),
		       reminded_at, created_at, updated_at
		FROM bookings `+where, arg).
		Scan(&b.ID, &b.Code, &b.StudentID, &b.InstructorID, &b.LocationID, &vehicleID,
			&b.StartTime, &b.EndTime, &b.Status, &b.PaymentMethod, &b.Notes,
			&remindedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	if vehicleID.Valid {
		id := int(vehicleID.Int64)
		b.VehicleID = &id
	}
	if remindedAt.Valid {
		t := remindedAt.Time
		b.RemindedAt = &t
	}
	return &b, nil
}

func (r *bookingRepository) GetResponseByCode(code string) (*entities.BookingResponse, error) {
	res, err := scanBookingResponse(r.db.QueryRow(bookingSelect+` WHERE b.code = $1`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *bookingRepository) GetResponseByID(id int) (*entities.BookingResponse, error) {
	res, err := scanBookingResponse(r.db.QueryRow(bookingSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *bookingRepository) ListByStudent(studentID, limit, offset int) (*entities.BookingsList, error) {
	var total int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM bookings WHERE student_id = $1`, studentID).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(bookingSelect+`
		WHERE b.student_id = $1
		ORDER BY b.start_time DESC
		LIMIT $2 OFFSET $3`, studentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := &entities.BookingsList{Total: total, Limit: limit, Offset: offset, Bookings: []entities.BookingResponse{}}
	for rows.Next() {
		res, err := scanBookingResponse(rows)
		if err != nil {
			return nil, err
		}
		list.Bookings = append(list.Bookings, *res)
	}
	return list, rows.Err()
}

func (r *bookingRepository) ListAdmin(date, status string, instructorID, limit, offset int) (*entities.BookingsList, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if date != "" {
		where += fmt.Sprintf(` AND b.start_time::date = $%d::date`, idx)
		args = append(args, date)
		idx++
	}
	if status != "" {
		where += fmt.Sprintf(` AND b.status = $%d`, idx)
		args = append(args, status)
		idx++
	}
	if instructorID > 0 {
		where += fmt.Sprintf(` AND b.instructor_id = $%d`, idx)
		args = append(args, instructorID)
		idx++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM bookings b` + where
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := bookingSelect + where + fmt.Sprintf(` ORDER BY b.start_time DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := &entities.BookingsList{Total: total, Limit: limit, Offset: offset, Bookings: []entities.BookingResponse{}}
	for rows.Next() {
		res, err := scanBookingResponse(rows)
		if err != nil {
			return nil, err
		}
		list.Bookings = append(list.Bookings, *res)
	}
	return list, rows.Err()
}

// ListLiveByInstructorBetween returns pending/confirmed bookings of one
// instructor intersecting [from, to). Used by slot generation.
func (r *bookingRepository) ListLiveByInstructorBetween(instructorID int, from, to time.Time) ([]db.Booking, error) {
	rows, err := r.db.Query(`
		SELECT id, start_time, end_time, status
		FROM bookings
		WHERE instructor_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3 AND end_time > $2
		ORDER BY start_time`, instructorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		var b db.Booking
		if err := rows.Scan(&b.ID, &b.StartTime, &b.EndTime, &b.Status); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) UpdateStatus(id int, status string) error {
	result, err := r.db.Exec(`UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
