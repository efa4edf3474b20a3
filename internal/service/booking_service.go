package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autoescuela/internal/apperr"
	"autoescuela/internal/db"
	"autoescuela/internal/entities"
	"autoescuela/internal/logger"
	"autoescuela/internal/repository"
)

// cancelCutoff is how long before the lesson start a student may still
// cancel.
const cancelCutoff = 12 * time.Hour

type bookingPayments interface {
	CreateBookingPayment(user *db.User, booking *entities.BookingResponse, amountCents int64, description string) (*entities.PaymentSessionResponse, error)
	RefundBooking(bookingID int) error
}

type slotInvalidator interface {
	InvalidateSlots(instructorID int, startTime time.Time)
}

type BookingService struct {
	Repo           repository.BookingRepository
	Catalog        repository.CatalogRepository
	Packages       repository.PackageRepository
	Users          repository.UserRepository
	Payments       bookingPayments
	Notifier       BookingNotifier
	Slots          slotInvalidator
	LessonDuration time.Duration
	LessonPrice    int64
}

// Create runs the whole booking flow: validation, conflict-checked
// insert (with an atomic credit debit for package bookings) and the
// payment-method-dependent follow-up.
func (s *BookingService) Create(studentID int, req entities.CreateBookingRequest) (*entities.CreateBookingResponse, error) {
	// Required selections missing means no write happens at all.
	if req.InstructorID == 0 || req.LocationID == 0 || req.StartTime.IsZero() {
		return nil, apperr.BadRequest("instructor, start time and location are required")
	}
	if !req.StartTime.After(time.Now().UTC()) {
		return nil, apperr.BadRequest("start time must be in the future")
	}

	instructor, err := s.Catalog.GetInstructor(req.InstructorID)
	if err != nil {
		return nil, err
	}
	if instructor == nil {
		return nil, apperr.BadRequest("unknown instructor")
	}
	location, err := s.Catalog.GetLocation(req.LocationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperr.BadRequest("unknown location")
	}
	if req.VehicleID != nil {
		vehicle, err := s.Catalog.GetVehicle(*req.VehicleID)
		if err != nil {
			return nil, err
		}
		if vehicle == nil {
			return nil, apperr.BadRequest("unknown vehicle")
		}
		if vehicle.LocationID != req.LocationID {
			return nil, apperr.BadRequest("vehicle is not stationed at the chosen location")
		}
	}

	periods, err := s.Catalog.GetSchedule(req.InstructorID)
	if err != nil {
		return nil, err
	}
	if !withinSchedule(periods, req.StartTime.UTC(), s.LessonDuration) {
		return nil, apperr.BadRequest("start time is outside the instructor's working hours")
	}

	status := db.BookingStatusConfirmed
	if req.PaymentMethod == db.PaymentMethodOnline {
		// Online bookings stay pending until the checkout webhook lands.
		status = db.BookingStatusPending
	}

	booking := &db.Booking{
		Code:          uuid.NewString(),
		StudentID:     studentID,
		InstructorID:  req.InstructorID,
		LocationID:    req.LocationID,
		VehicleID:     req.VehicleID,
		StartTime:     req.StartTime.UTC(),
		EndTime:       req.StartTime.UTC().Add(s.LessonDuration),
		Status:        status,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}

	consumeCredit := req.PaymentMethod == db.PaymentMethodPackage
	if err := s.Repo.Create(booking, consumeCredit); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, apperr.Conflict("the selected time slot is no longer available")
		case errors.Is(err, repository.ErrInsufficientCredits):
			return nil, apperr.BadRequest("not enough credits for a package booking")
		default:
			return nil, err
		}
	}

	if s.Slots != nil {
		s.Slots.InvalidateSlots(booking.InstructorID, booking.StartTime)
	}

	resp, err := s.Repo.GetResponseByID(booking.ID)
	if err != nil {
		return nil, err
	}
	result := &entities.CreateBookingResponse{Booking: *resp}

	switch req.PaymentMethod {
	case db.PaymentMethodOnline:
		user, err := s.Users.GetByID(studentID)
		if err != nil || user == nil {
			// The booking is already persisted; like a gateway failure the
			// payment can be retried from the bookings list.
			logger.Get().Error("could not load student for payment session",
				zap.String("code", booking.Code), zap.Error(err))
			break
		}
		description := fmt.Sprintf("Driving lesson on %s", booking.StartTime.Format("02 Jan 2006 15:04"))
		session, err := s.Payments.CreateBookingPayment(user, resp, s.LessonPrice, description)
		if err != nil {
			// The booking stays created; payment can be retried from the
			// bookings list.
			logger.Get().Error("payment session creation failed",
				zap.String("code", booking.Code), zap.Error(err))
		} else {
			result.RedirectURL = session.RedirectURL
		}
	default:
		// cash and package bookings are confirmed immediately
		s.notify(*resp, db.BookingStatusConfirmed)
	}

	return result, nil
}

func (s *BookingService) ListMine(studentID, limit, offset int) (*entities.BookingsList, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListByStudent(studentID, limit, offset)
}

func (s *BookingService) GetByCode(code string, requesterID int, isAdmin bool) (*entities.BookingResponse, error) {
	booking, err := s.Repo.GetByCode(code)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, err
	}
	if !isAdmin && booking.StudentID != requesterID {
		return nil, apperr.NotFound("booking not found")
	}
	return s.Repo.GetResponseByCode(code)
}

// Cancel cancels a booking, refunding an online payment and returning a
// consumed package credit.
func (s *BookingService) Cancel(code string, requesterID int, isAdmin bool) error {
	booking, err := s.Repo.GetByCode(code)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return apperr.NotFound("booking not found")
		}
		return err
	}
	if !isAdmin && booking.StudentID != requesterID {
		return apperr.NotFound("booking not found")
	}
	if booking.Status != db.BookingStatusPending && booking.Status != db.BookingStatusConfirmed {
		return apperr.Conflict(fmt.Sprintf("a %s booking cannot be canceled", booking.Status))
	}
	if !isAdmin && booking.StartTime.Sub(time.Now().UTC()) < cancelCutoff {
		return apperr.Conflict("bookings can only be canceled more than 12 hours before the start time")
	}

	if booking.PaymentMethod == db.PaymentMethodOnline && s.Payments != nil {
		if err := s.Payments.RefundBooking(booking.ID); err != nil {
			return err
		}
	}

	if booking.PaymentMethod == db.PaymentMethodPackage {
		debited, err := s.Packages.HasDebitForBooking(booking.ID)
		if err != nil {
			return err
		}
		if debited {
			if err := s.Packages.Grant(booking.StudentID, nil, &booking.ID, 1, "cancellation refund"); err != nil {
				return err
			}
		}
	}

	if err := s.Repo.UpdateStatus(booking.ID, db.BookingStatusCanceled); err != nil {
		return err
	}
	if s.Slots != nil {
		s.Slots.InvalidateSlots(booking.InstructorID, booking.StartTime)
	}

	if resp, err := s.Repo.GetResponseByID(booking.ID); err == nil {
		s.notify(*resp, db.BookingStatusCanceled)
	}
	return nil
}

func (s *BookingService) ListAdmin(date, status string, instructorID, limit, offset int) (*entities.BookingsList, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListAdmin(date, status, instructorID, limit, offset)
}

func (s *BookingService) AdminUpdateStatus(id int, status string) error {
	booking, err := s.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return apperr.NotFound("booking not found")
		}
		return err
	}
	if err := s.Repo.UpdateStatus(id, status); err != nil {
		return err
	}
	// Canceling or expiring frees the slot.
	if s.Slots != nil && (status == db.BookingStatusCanceled || status == db.BookingStatusExpired) {
		s.Slots.InvalidateSlots(booking.InstructorID, booking.StartTime)
	}
	return nil
}

// withinSchedule reports whether the whole lesson fits inside one of the
// instructor's weekly working windows.
func withinSchedule(periods []db.SchedulePeriod, start time.Time, lessonDuration time.Duration) bool {
	weekday := int(start.Weekday())
	startMinute := start.Hour()*60 + start.Minute()
	endMinute := startMinute + int(lessonDuration.Minutes())
	for _, p := range periods {
		if p.Weekday == weekday && p.StartMinute <= startMinute && endMinute <= p.EndMinute {
			return true
		}
	}
	return false
}

func (s *BookingService) notify(booking entities.BookingResponse, status string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.SendBookingEmail(booking, status)
	s.Notifier.SendBookingSMS(booking, status)
}
