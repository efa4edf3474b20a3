package entities

import "time"

// TimeSlot is one bookable lesson window of an instructor.
type TimeSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type SlotsResponse struct {
	InstructorID int        `json:"instructor_id"`
	Date         string     `json:"date"`
	Slots        []TimeSlot `json:"slots"`
}

type VehicleAvailabilityRequest struct {
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
	LocationID int       `json:"location_id" validate:"required"`
	Category   string    `json:"category"`
}

type VehicleResponse struct {
	ID           int    `json:"id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Registration string `json:"registration"`
	Transmission string `json:"transmission"`
	FuelType     string `json:"fuel_type"`
	Category     string `json:"category"`
}
