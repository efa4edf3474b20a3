package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"autoescuela/internal/db"
)

type CatalogRepository interface {
	ListLocations() ([]db.Location, error)
	GetLocation(id int) (*db.Location, error)
	CreateLocation(loc *db.Location) error
	UpdateLocation(loc *db.Location) error
	DeleteLocation(id int) error

	ListInstructors(locationID int) ([]db.Instructor, error)
	GetInstructor(id int) (*db.Instructor, error)
	CreateInstructor(ins *db.Instructor) error
	UpdateInstructor(ins *db.Instructor) error
	DeleteInstructor(id int) error

	GetSchedule(instructorID int) ([]db.SchedulePeriod, error)
	ReplaceSchedule(instructorID int, periods []db.SchedulePeriod) error

	ListAvailableVehicles(startTime, endTime time.Time, locationID int, category string) ([]db.Vehicle, error)
	GetVehicle(id int) (*db.Vehicle, error)
	CreateVehicle(v *db.Vehicle) error
	UpdateVehicle(v *db.Vehicle) error
	DeleteVehicle(id int) error
}

type catalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(database *sql.DB) CatalogRepository {
	return &catalogRepository{db: database}
}

func (r *catalogRepository) ListLocations() ([]db.Location, error) {
	rows, err := r.db.Query(`SELECT id, name, address, city, postal_code FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []db.Location
	for rows.Next() {
		var l db.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.PostalCode); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *catalogRepository) GetLocation(id int) (*db.Location, error) {
	var l db.Location
	err := r.db.QueryRow(`SELECT id, name, address, city, postal_code FROM locations WHERE id = $1`, id).
		Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.PostalCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *catalogRepository) CreateLocation(loc *db.Location) error {
	return r.db.QueryRow(`
		INSERT INTO locations (name, address, city, postal_code)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		loc.Name, loc.Address, loc.City, loc.PostalCode).Scan(&loc.ID)
}

func (r *catalogRepository) UpdateLocation(loc *db.Location) error {
	_, err := r.db.Exec(`
		UPDATE locations SET name = $2, address = $3, city = $4, postal_code = $5
		WHERE id = $1`,
		loc.ID, loc.Name, loc.Address, loc.City, loc.PostalCode)
	return err
}

func (r *catalogRepository) DeleteLocation(id int) error {
	_, err := r.db.Exec(`DELETE FROM locations WHERE id = $1`, id)
	return err
}

func (r *catalogRepository) ListInstructors(locationID int) ([]db.Instructor, error) {
	query := `SELECT id, first_name, last_name, email, phone, location_id FROM instructors`
	args := []interface{}{}
	if locationID > 0 {
		query += ` WHERE location_id = $1`
		args = append(args, locationID)
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instructors []db.Instructor
	for rows.Next() {
		var i db.Instructor
		if err := rows.Scan(&i.ID, &i.FirstName, &i.LastName, &i.Email, &i.Phone, &i.LocationID); err != nil {
			return nil, err
		}
		instructors = append(instructors, i)
	}
	return instructors, rows.Err()
}

func (r *catalogRepository) GetInstructor(id int) (*db.Instructor, error) {
	var i db.Instructor
	err := r.db.QueryRow(`
		SELECT id, first_name, last_name, email, phone, location_id
		FROM instructors WHERE id = $1`, id).
		Scan(&i.ID, &i.FirstName, &i.LastName, &i.Email, &i.Phone, &i.LocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

func (r *catalogRepository) CreateInstructor(ins *db.Instructor) error {
	return r.db.QueryRow(`
		INSERT INTO instructors (first_name, last_name, email, phone, location_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		ins.FirstName, ins.LastName, ins.Email, ins.Phone, ins.LocationID).Scan(&ins.ID)
}

func (r *catalogRepository) UpdateInstructor(ins *db.Instructor) error {
	_, err := r.db.Exec(`
		UPDATE instructors SET first_name = $2, last_name = $3, email = $4, phone = $5, location_id = $6
		WHERE id = $1`,
		ins.ID, ins.FirstName, ins.LastName, ins.Email, ins.Phone, ins.LocationID)
	return err
}

func (r *catalogRepository) DeleteInstructor(id int) error {
	_, err := r.db.Exec(`DELETE FROM instructors WHERE id = $1`, id)
	return err
}

func (r *catalogRepository) GetSchedule(instructorID int) ([]db.SchedulePeriod, error) {
	rows, err := r.db.Query(`
		SELECT id, instructor_id, weekday, start_minute, end_minute
		FROM instructor_schedules
		WHERE instructor_id = $1
		ORDER BY weekday, start_minute`, instructorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []db.SchedulePeriod
	for rows.Next() {
		var p db.SchedulePeriod
		if err := rows.Scan(&p.ID, &p.InstructorID, &p.Weekday, &p.StartMinute, &p.EndMinute); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// ReplaceSchedule swaps the whole weekly schedule in one transaction so a
// half-written schedule is never observable.
func (r *catalogRepository) ReplaceSchedule(instructorID int, periods []db.SchedulePeriod) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM instructor_schedules WHERE instructor_id = $1`, instructorID); err != nil {
		return err
	}
	for _, p := range periods {
		_, err := tx.Exec(`
			INSERT INTO instructor_schedules (instructor_id, weekday, start_minute, end_minute)
			VALUES ($1, $2, $3, $4)`,
			instructorID, p.Weekday, p.StartMinute, p.EndMinute)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAvailableVehicles returns the vehicles at a location with no live
// booking overlapping the requested window.
func (r *catalogRepository) ListAvailableVehicles(startTime, endTime time.Time, locationID int, category string) ([]db.Vehicle, error) {
	if !endTime.After(startTime) {
		return nil, fmt.Errorf("end time must be after start time")
	}

	query := `
		SELECT v.id, v.location_id, v.make, v.model, v.registration, v.transmission, v.fuel_type, v.category
		FROM vehicles v
		WHERE v.location_id = $1
		  AND ($2 = '' OR v.category = $2)
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.vehicle_id = v.id
			  AND b.status IN ('pending', 'confirmed')
			  AND b.start_time < $4
			  AND b.end_time > $3
		  )
		ORDER BY v.make, v.model`

	rows, err := r.db.Query(query, locationID, category, startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("error querying available vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		var v db.Vehicle
		if err := rows.Scan(&v.ID, &v.LocationID, &v.Make, &v.Model, &v.Registration, &v.Transmission, &v.FuelType, &v.Category); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *catalogRepository) GetVehicle(id int) (*db.Vehicle, error) {
	var v db.Vehicle
	err := r.db.QueryRow(`
		SELECT id, location_id, make, model, registration, transmission, fuel_type, category
		FROM vehicles WHERE id = $1`, id).
		Scan(&v.ID, &v.LocationID, &v.Make, &v.Model, &v.Registration, &v.Transmission, &v.FuelType, &v.Category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *catalogRepository) CreateVehicle(v *db.Vehicle) error {
	return r.db.QueryRow(`
		INSERT INTO vehicles (location_id, make, model, registration, transmission, fuel_type, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		v.LocationID, v.Make, v.Model, v.Registration, v.Transmission, v.FuelType, v.Category).Scan(&v.ID)
}

func (r *catalogRepository) UpdateVehicle(v *db.Vehicle) error {
	_, err := r.db.Exec(`
		UPDATE vehicles SET location_id = $2, make = $3, model = $4, registration = $5, transmission = $6, fuel_type = $7, category = $8
		WHERE id = $1`,
		v.ID, v.LocationID, v.Make, v.Model, v.Registration, v.Transmission, v.FuelType, v.Category)
	return err
}

func (r *catalogRepository) DeleteVehicle(id int) error {
	_, err := r.db.Exec(`DELETE FROM vehicles WHERE id = $1`, id)
	return err
}
