package entities

import "time"

type CreateBookingRequest struct {
	InstructorID  int       `json:"instructor_id" validate:"required"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	LocationID    int       `json:"location_id" validate:"required"`
	VehicleID     *int      `json:"vehicle_id"`
	Notes         string    `json:"notes"`
	PaymentMethod string    `json:"payment_method" validate:"required,oneof=cash online package"`
}

type BookingResponse struct {
	ID             int       `json:"id"`
	Code           string    `json:"code"`
	StudentName    string    `json:"student_name"`
	StudentEmail   string    `json:"student_email"`
	StudentPhone   string    `json:"student_phone"`
	InstructorID   int       `json:"instructor_id"`
	InstructorName string    `json:"instructor_name"`
	LocationID     int       `json:"location_id"`
	LocationName   string    `json:"location_name"`
	VehicleID      *int      `json:"vehicle_id,omitempty"`
	VehicleName    string    `json:"vehicle_name,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Status         string    `json:"status"`
	PaymentMethod  string    `json:"payment_method"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateBookingResponse echoes the booking and, for online payments,
// carries the Stripe checkout URL the client must redirect to.
type CreateBookingResponse struct {
	Booking     BookingResponse `json:"booking"`
	RedirectURL string          `json:"redirect_url,omitempty"`
}

type BookingsList struct {
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	Bookings []BookingResponse `json:"bookings"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed canceled expired"`
}
