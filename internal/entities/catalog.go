package entities

type LocationResponse struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type InstructorResponse struct {
	ID         int    `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	LocationID int    `json:"location_id"`
}

type UpsertLocationRequest struct {
	Name       string `json:"name" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

type UpsertInstructorRequest struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	LocationID int    `json:"location_id" validate:"required"`
}

type UpsertVehicleRequest struct {
	LocationID   int    `json:"location_id" validate:"required"`
	Make         string `json:"make" validate:"required"`
	Model        string `json:"model" validate:"required"`
	Registration string `json:"registration" validate:"required"`
	Transmission string `json:"transmission" validate:"required,oneof=manual automatic"`
	FuelType     string `json:"fuel_type" validate:"required"`
	Category     string `json:"category"`
}

// SchedulePeriodRequest is one weekly working window in an instructor
// schedule upsert. Times are "HH:MM", local to the school.
type SchedulePeriodRequest struct {
	Weekday int    `json:"weekday" validate:"min=0,max=6"`
	Start   string `json:"start" validate:"required"`
	End     string `json:"end" validate:"required"`
}

type UpsertScheduleRequest struct {
	Periods []SchedulePeriodRequest `json:"periods" validate:"required,dive"`
}
