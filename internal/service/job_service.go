package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"autoescuela/internal/db"
	"autoescuela/internal/entities"
	"autoescuela/internal/logger"
	"autoescuela/internal/repository"
)

type jobStore interface {
	GetConfirmedIDsPastEndTime() ([]int, error)
	UpdateBookingStatuses(ids []int, status string) error
	ExpireStalePendingOnline(olderThan time.Time) ([]db.Booking, error)
	GetUpcomingForReminder(windowEnd time.Time) ([]entities.BookingResponse, error)
	MarkReminded(bookingID int) error
}

// JobService hosts the periodic booking lifecycle tasks run from cron.
type JobService struct {
	Repo     jobStore
	Notifier BookingNotifier
	Slots    slotInvalidator
}

func NewJobService(repo *repository.JobRepository, notifier BookingNotifier, slots slotInvalidator) *JobService {
	return &JobService{Repo: repo, Notifier: notifier, Slots: slots}
}

// CompleteFinishedBookings marks confirmed bookings whose lesson is over
// as completed.
func (s *JobService) CompleteFinishedBookings() error {
	ids, err := s.Repo.GetConfirmedIDsPastEndTime()
	if err != nil {
		return fmt.Errorf("cron: failed to get confirmed bookings past end time: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.Repo.UpdateBookingStatuses(ids, db.BookingStatusCompleted); err != nil {
		return fmt.Errorf("cron: failed to complete bookings: %w", err)
	}
	logger.Get().Info("bookings marked completed", zap.Int("count", len(ids)))
	return nil
}

// ExpireStalePendingBookings expires online bookings whose checkout was
// never completed.
func (s *JobService) ExpireStalePendingBookings(maxAge time.Duration) error {
	expired, err := s.Repo.ExpireStalePendingOnline(time.Now().UTC().Add(-maxAge))
	if err != nil {
		return fmt.Errorf("cron: failed to expire stale pending bookings: %w", err)
	}
	for _, b := range expired {
		// Expiring frees the slot.
		if s.Slots != nil {
			s.Slots.InvalidateSlots(b.InstructorID, b.StartTime)
		}
	}
	if len(expired) > 0 {
		logger.Get().Info("stale pending bookings expired", zap.Int("count", len(expired)))
	}
	return nil
}

// SendUpcomingReminders notifies students of confirmed lessons starting
// within the window. Each booking is reminded at most once.
func (s *JobService) SendUpcomingReminders(window time.Duration) error {
	bookings, err := s.Repo.GetUpcomingForReminder(time.Now().UTC().Add(window))
	if err != nil {
		return fmt.Errorf("cron: failed to load upcoming bookings: %w", err)
	}
	for _, b := range bookings {
		if s.Notifier != nil {
			s.Notifier.SendBookingEmail(b, "starting soon")
			s.Notifier.SendBookingSMS(b, "starting soon")
		}
		if err := s.Repo.MarkReminded(b.ID); err != nil {
			logger.Get().Warn("failed to mark booking reminded",
				zap.Int("booking_id", b.ID), zap.Error(err))
		}
	}
	return nil
}
