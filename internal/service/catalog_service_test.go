package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoescuela/internal/apperr"
	"autoescuela/internal/db"
	"autoescuela/internal/entities"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{"00:00", 0, true},
		{"09:00", 540, true},
		{"09:30", 570, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"09:60", 0, false},
		{"9am", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, err := parseClock(c.in)
		if c.ok {
			require.NoError(t, err, c.in)
			assert.Equal(t, c.minutes, got, c.in)
		} else {
			assert.Error(t, err, c.in)
		}
	}
}

func TestUpsertScheduleStoresMinutes(t *testing.T) {
	catalog := newFakeCatalogRepo()
	catalog.instructors[1] = &db.Instructor{ID: 1}
	svc := NewCatalogService(catalog)

	err := svc.UpsertSchedule(1, entities.UpsertScheduleRequest{
		Periods: []entities.SchedulePeriodRequest{
			{Weekday: 1, Start: "09:00", End: "15:00"},
			{Weekday: 3, Start: "16:00", End: "20:00"},
		},
	})

	require.NoError(t, err)
	require.Len(t, catalog.schedule, 2)
	assert.Equal(t, db.SchedulePeriod{InstructorID: 1, Weekday: 1, StartMinute: 540, EndMinute: 900}, catalog.schedule[0])
	assert.Equal(t, db.SchedulePeriod{InstructorID: 1, Weekday: 3, StartMinute: 960, EndMinute: 1200}, catalog.schedule[1])
}

func TestUpsertScheduleRejectsInvertedPeriod(t *testing.T) {
	catalog := newFakeCatalogRepo()
	catalog.instructors[1] = &db.Instructor{ID: 1}
	svc := NewCatalogService(catalog)

	err := svc.UpsertSchedule(1, entities.UpsertScheduleRequest{
		Periods: []entities.SchedulePeriodRequest{{Weekday: 1, Start: "15:00", End: "09:00"}},
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestUpsertScheduleUnknownInstructor(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogRepo())

	err := svc.UpsertSchedule(42, entities.UpsertScheduleRequest{})

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestGetAvailableVehiclesRejectsInvertedRange(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogRepo())
	start := time.Now().UTC().Add(24 * time.Hour)

	_, err := svc.GetAvailableVehicles(entities.VehicleAvailabilityRequest{
		StartTime:  start,
		EndTime:    start.Add(-time.Hour),
		LocationID: 2,
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}
