package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"autoescuela/internal/db"
	"autoescuela/internal/entities"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// GetConfirmedIDsPastEndTime returns confirmed bookings whose lesson is over.
func (r *JobRepository) GetConfirmedIDsPastEndTime() ([]int, error) {
	rows, err := r.DB.Query(`SELECT id FROM bookings WHERE status = 'confirmed' AND end_time < NOW()`)
	if err != nil {
		return nil, fmt.Errorf("error querying confirmed bookings past end time: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *JobRepository) UpdateBookingStatuses(ids []int, status string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.DB.Exec(`
		UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = ANY($2)`,
		status, pq.Array(ids))
	return err
}

// ExpireStalePendingOnline marks unpaid online bookings older than the
// cutoff as expired and returns the touched bookings.
func (r *JobRepository) ExpireStalePendingOnline(olderThan time.Time) ([]db.Booking, error) {
	rows, err := r.DB.Query(`
		UPDATE bookings SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND payment_method = 'online' AND created_at < $1
		RETURNING id, instructor_id, start_time`,
		olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []db.Booking
	for rows.Next() {
		var b db.Booking
		if err := rows.Scan(&b.ID, &b.InstructorID, &b.StartTime); err != nil {
			return nil, err
		}
		expired = append(expired, b)
	}
	return expired, rows.Err()
}

// GetUpcomingForReminder returns confirmed, not-yet-reminded bookings
// starting before windowEnd.
func (r *JobRepository) GetUpcomingForReminder(windowEnd time.Time) ([]entities.BookingResponse, error) {
	rows, err := r.DB.Query(bookingSelect+`
		WHERE b.status = 'confirmed'
		  AND b.reminded_at IS NULL
		  AND b.start_time > NOW()
		  AND b.start_time < $1
		ORDER BY b.start_time`, windowEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []entities.BookingResponse
	for rows.Next() {
		res, err := scanBookingResponse(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *res)
	}
	return bookings, rows.Err()
}

func (r *JobRepository) MarkReminded(bookingID int) error {
	_, err := r.DB.Exec(`UPDATE bookings SET reminded_at = NOW() WHERE id = $1`, bookingID)
	return err
}
