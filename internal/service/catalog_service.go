package service

import (
	"fmt"
	"strconv"
	"strings"

	"autoescuela/internal/apperr"
	"autoescuela/internal/db"
	"autoescuela/internal/entities"
	"autoescuela/internal/repository"
)

type CatalogService struct {
	Repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{Repo: repo}
}

func (s *CatalogService) ListLocations() ([]entities.LocationResponse, error) {
	locations, err := s.Repo.ListLocations()
	if err != nil {
		return nil, err
	}
	res := make([]entities.LocationResponse, 0, len(locations))
	for _, l := range locations {
		res = append(res, entities.LocationResponse{
			ID: l.ID, Name: l.Name, Address: l.Address, City: l.City, PostalCode: l.PostalCode,
		})
	}
	return res, nil
}

func (s *CatalogService) ListInstructors(locationID int) ([]entities.InstructorResponse, error) {
	instructors, err := s.Repo.ListInstructors(locationID)
	if err != nil {
		return nil, err
	}
	res := make([]entities.InstructorResponse, 0, len(instructors))
	for _, i := range instructors {
		res = append(res, entities.InstructorResponse{
			ID: i.ID, FirstName: i.FirstName, LastName: i.LastName,
			Email: i.Email, Phone: i.Phone, LocationID: i.LocationID,
		})
	}
	return res, nil
}

func (s *CatalogService) GetAvailableVehicles(req entities.VehicleAvailabilityRequest) ([]entities.VehicleResponse, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, apperr.BadRequest("end_time must be after start_time")
	}
	vehicles, err := s.Repo.ListAvailableVehicles(req.StartTime, req.EndTime, req.LocationID, req.Category)
	if err != nil {
		return nil, err
	}
	res := make([]entities.VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		res = append(res, entities.VehicleResponse{
			ID: v.ID, Make: v.Make, Model: v.Model, Registration: v.Registration,
			Transmission: v.Transmission, FuelType: v.FuelType, Category: v.Category,
		})
	}
	return res, nil
}

func (s *CatalogService) CreateLocation(req entities.UpsertLocationRequest) (*entities.LocationResponse, error) {
	loc := &db.Location{Name: req.Name, Address: req.Address, City: req.City, PostalCode: req.PostalCode}
	if err := s.Repo.CreateLocation(loc); err != nil {
		return nil, err
	}
	return &entities.LocationResponse{ID: loc.ID, Name: loc.Name, Address: loc.Address, City: loc.City, PostalCode: loc.PostalCode}, nil
}

func (s *CatalogService) UpdateLocation(id int, req entities.UpsertLocationRequest) error {
	existing, err := s.Repo.GetLocation(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFound("location not found")
	}
	return s.Repo.UpdateLocation(&db.Location{
		ID: id, Name: req.Name, Address: req.Address, City: req.City, PostalCode: req.PostalCode,
	})
}

func (s *CatalogService) DeleteLocation(id int) error {
	return s.Repo.DeleteLocation(id)
}

func (s *CatalogService) CreateInstructor(req entities.UpsertInstructorRequest) (*entities.InstructorResponse, error) {
	loc, err := s.Repo.GetLocation(req.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, apperr.BadRequest("unknown location")
	}
	ins := &db.Instructor{
		FirstName: req.FirstName, LastName: req.LastName,
		Email: req.Email, Phone: req.Phone, LocationID: req.LocationID,
	}
	if err := s.Repo.CreateInstructor(ins); err != nil {
		return nil, err
	}
	return &entities.InstructorResponse{
		ID: ins.ID, FirstName: ins.FirstName, LastName: ins.LastName,
		Email: ins.Email, Phone: ins.Phone, LocationID: ins.LocationID,
	}, nil
}

func (s *CatalogService) UpdateInstructor(id int, req entities.UpsertInstructorRequest) error {
	existing, err := s.Repo.GetInstructor(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFound("instructor not found")
	}
	return s.Repo.UpdateInstructor(&db.Instructor{
		ID: id, FirstName: req.FirstName, LastName: req.LastName,
		Email: req.Email, Phone: req.Phone, LocationID: req.LocationID,
	})
}

func (s *CatalogService) DeleteInstructor(id int) error {
	return s.Repo.DeleteInstructor(id)
}

// UpsertSchedule replaces an instructor's weekly schedule. Times come in
// as "HH:MM" and are stored as minutes from midnight.
func (s *CatalogService) UpsertSchedule(instructorID int, req entities.UpsertScheduleRequest) error {
	ins, err := s.Repo.GetInstructor(instructorID)
	if err != nil {
		return err
	}
	if ins == nil {
		return apperr.NotFound("instructor not found")
	}

	periods := make([]db.SchedulePeriod, 0, len(req.Periods))
	for _, p := range req.Periods {
		start, err := parseClock(p.Start)
		if err != nil {
			return apperr.BadRequest(fmt.Sprintf("invalid start time %q", p.Start))
		}
		end, err := parseClock(p.End)
		if err != nil {
			return apperr.BadRequest(fmt.Sprintf("invalid end time %q", p.End))
		}
		if end <= start {
			return apperr.BadRequest("schedule period end must be after start")
		}
		periods = append(periods, db.SchedulePeriod{
			InstructorID: instructorID,
			Weekday:      p.Weekday,
			StartMinute:  start,
			EndMinute:    end,
		})
	}
	return s.Repo.ReplaceSchedule(instructorID, periods)
}

func (s *CatalogService) CreateVehicle(req entities.UpsertVehicleRequest) (*entities.VehicleResponse, error) {
	loc, err := s.Repo.GetLocation(req.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, apperr.BadRequest("unknown location")
	}
	v := &db.Vehicle{
		LocationID: req.LocationID, Make: req.Make, Model: req.Model,
		Registration: req.Registration, Transmission: req.Transmission,
		FuelType: req.FuelType, Category: req.Category,
	}
	if err := s.Repo.CreateVehicle(v); err != nil {
		return nil, err
	}
	return &entities.VehicleResponse{
		ID: v.ID, Make: v.Make, Model: v.Model, Registration: v.Registration,
		Transmission: v.Transmission, FuelType: v.FuelType, Category: v.Category,
	}, nil
}

func (s *CatalogService) UpdateVehicle(id int, req entities.UpsertVehicleRequest) error {
	existing, err := s.Repo.GetVehicle(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFound("vehicle not found")
	}
	return s.Repo.UpdateVehicle(&db.Vehicle{
		ID: id, LocationID: req.LocationID, Make: req.Make, Model: req.Model,
		Registration: req.Registration, Transmission: req.Transmission,
		FuelType: req.FuelType, Category: req.Category,
	})
}

func (s *CatalogService) DeleteVehicle(id int) error {
	return s.Repo.DeleteVehicle(id)
}

// parseClock converts "HH:MM" to minutes from midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute")
	}
	return h*60 + m, nil
}
