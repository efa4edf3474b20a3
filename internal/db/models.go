package db

import "time"

// Booking status lifecycle:
// pending -> confirmed -> completed
// pending|confirmed -> canceled
// pending -> expired (unpaid online bookings, via cron)
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCanceled  = "canceled"
	BookingStatusExpired   = "expired"
)

const (
	PaymentMethodCash    = "cash"
	PaymentMethodOnline  = "online"
	PaymentMethodPackage = "package"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusFailed    = "failed"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	ID           int
	Role         string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

type Location struct {
	ID         int
	Name       string
	Address    string
	City       string
	PostalCode string
}

type Instructor struct {
	ID         int
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	LocationID int
}

// SchedulePeriod is one weekly working window of an instructor.
// Weekday follows time.Weekday (0 = Sunday). Start and End are minutes
// from midnight, local to the school.
type SchedulePeriod struct {
	ID           int
	InstructorID int
	Weekday      int
	StartMinute  int
	EndMinute    int
}

type Vehicle struct {
	ID           int
	LocationID   int
	Make         string
	Model        string
	Registration string
	Transmission string
	FuelType     string
	Category     string
}

type Package struct {
	ID         int
	Name       string
	Credits    int
	PriceCents int64
	Active     bool
}

// CreditEntry is one row of the credits ledger. Grants are positive,
// consumption negative. A user's balance is the sum of their entries.
type CreditEntry struct {
	ID        int
	UserID    int
	BookingID *int
	PackageID *int
	Delta     int
	Reason    string
	CreatedAt time.Time
}

type Booking struct {
	ID            int
	Code          string
	StudentID     int
	InstructorID  int
	LocationID    int
	VehicleID     *int
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	PaymentMethod string
	Notes         string
	RemindedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Payment struct {
	ID              int
	UserID          int
	BookingID       *int
	PackageID       *int
	AmountCents     int64
	Currency        string
	Description     string
	StripeSessionID string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
