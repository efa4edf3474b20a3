package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"autoescuela/internal/apperr"
	"autoescuela/internal/cache"
	"autoescuela/internal/db"
	"autoescuela/internal/entities"
	"autoescuela/internal/logger"
	"autoescuela/internal/repository"
)

// AvailabilityService computes the bookable lesson slots of an instructor
// for one day: the instructor's weekly working windows, cut into
// lesson-length slots, minus anything overlapping a live booking and
// minus slots already in the past.
type AvailabilityService struct {
	Catalog        repository.CatalogRepository
	Bookings       repository.BookingRepository
	Cache          *cache.Redis
	LessonDuration time.Duration
	CacheTTL       time.Duration
}

func NewAvailabilityService(catalog repository.CatalogRepository, bookings repository.BookingRepository, c *cache.Redis, lessonDuration, cacheTTL time.Duration) *AvailabilityService {
	return &AvailabilityService{
		Catalog:        catalog,
		Bookings:       bookings,
		Cache:          c,
		LessonDuration: lessonDuration,
		CacheTTL:       cacheTTL,
	}
}

func slotCacheKey(instructorID int, date string) string {
	return fmt.Sprintf("slots:%d:%s", instructorID, date)
}

// GetAvailableSlots returns the free slots of an instructor on a date
// ("2006-01-02", interpreted in UTC like every timestamp in the API).
func (s *AvailabilityService) GetAvailableSlots(instructorID int, date string) (*entities.SlotsResponse, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, apperr.BadRequest("date must be formatted YYYY-MM-DD")
	}

	instructor, err := s.Catalog.GetInstructor(instructorID)
	if err != nil {
		return nil, err
	}
	if instructor == nil {
		return nil, apperr.NotFound("instructor not found")
	}

	key := slotCacheKey(instructorID, date)
	if s.Cache != nil {
		var cached entities.SlotsResponse
		if s.Cache.Get(key, &cached) {
			return &cached, nil
		}
	}

	periods, err := s.Catalog.GetSchedule(instructorID)
	if err != nil {
		return nil, err
	}

	dayEnd := day.Add(24 * time.Hour)
	busy, err := s.Bookings.ListLiveByInstructorBetween(instructorID, day, dayEnd)
	if err != nil {
		return nil, err
	}

	res := &entities.SlotsResponse{
		InstructorID: instructorID,
		Date:         date,
		Slots:        buildSlots(periods, busy, day, s.LessonDuration, time.Now().UTC()),
	}

	if s.Cache != nil {
		s.Cache.Set(key, res, s.CacheTTL)
	}
	return res, nil
}

// InvalidateSlots drops the cached slot list for an instructor's day.
// Called after any booking create or cancel touching that day.
func (s *AvailabilityService) InvalidateSlots(instructorID int, startTime time.Time) {
	if s.Cache == nil {
		return
	}
	key := slotCacheKey(instructorID, startTime.UTC().Format("2006-01-02"))
	s.Cache.Del(key)
	logger.Get().Debug("slot cache invalidated", zap.String("key", key))
}

// buildSlots is the pure core of slot generation. day must be midnight
// UTC of the requested date.
func buildSlots(periods []db.SchedulePeriod, busy []db.Booking, day time.Time, lessonDuration time.Duration, now time.Time) []entities.TimeSlot {
	slots := []entities.TimeSlot{}
	weekday := int(day.Weekday())
	stepMinutes := int(lessonDuration.Minutes())
	if stepMinutes <= 0 {
		return slots
	}

	for _, p := range periods {
		if p.Weekday != weekday {
			continue
		}
		for start := p.StartMinute; start+stepMinutes <= p.EndMinute; start += stepMinutes {
			slotStart := day.Add(time.Duration(start) * time.Minute)
			slotEnd := slotStart.Add(lessonDuration)

			if !slotStart.After(now) {
				continue
			}
			if overlapsAny(slotStart, slotEnd, busy) {
				continue
			}
			slots = append(slots, entities.TimeSlot{StartTime: slotStart, EndTime: slotEnd})
		}
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []db.Booking) bool {
	for _, b := range busy {
		if start.Before(b.EndTime) && end.After(b.StartTime) {
			return true
		}
	}
	return false
}
