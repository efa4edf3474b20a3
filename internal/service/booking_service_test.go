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
	"autoescuela/internal/repository"
)

const testStudentID = 7

type bookingFixture struct {
	svc      *BookingService
	repo     *fakeBookingRepo
	catalog  *fakeCatalogRepo
	packages *fakePackageRepo
	payments *fakePayments
	notifier *fakeNotifier
	slots    *fakeSlotInvalidator
}

func newBookingFixture() *bookingFixture {
	catalog := newFakeCatalogRepo()
	catalog.locations[2] = &db.Location{ID: 2, Name: "Centro", City: "Madrid"}
	catalog.instructors[1] = &db.Instructor{ID: 1, FirstName: "Luis", LastName: "Vega", LocationID: 2}
	catalog.vehicles[3] = &db.Vehicle{ID: 3, LocationID: 2, Make: "Seat", Model: "Ibiza"}
	catalog.vehicles[4] = &db.Vehicle{ID: 4, LocationID: 9, Make: "Opel", Model: "Corsa"}
	catalog.schedule = mondayMorning()

	f := &bookingFixture{
		repo:     newFakeBookingRepo(),
		catalog:  catalog,
		packages: newFakePackageRepo(),
		payments: &fakePayments{},
		notifier: &fakeNotifier{},
		slots:    &fakeSlotInvalidator{},
	}
	f.svc = &BookingService{
		Repo:           f.repo,
		Catalog:        f.catalog,
		Packages:       f.packages,
		Users:          &fakeUserRepo{users: map[int]*db.User{testStudentID: {ID: testStudentID, Email: "ana@example.com", FirstName: "Ana"}}},
		Payments:       f.payments,
		Notifier:       f.notifier,
		Slots:          f.slots,
		LessonDuration: 2 * time.Hour,
		LessonPrice:    6000,
	}
	return f
}

func validRequest(method string) entities.CreateBookingRequest {
	return entities.CreateBookingRequest{
		InstructorID:  1,
		LocationID:    2,
		StartTime:     monday.Add(10 * time.Hour),
		PaymentMethod: method,
	}
}

func TestCreateBookingMissingSelectionWritesNothing(t *testing.T) {
	f := newBookingFixture()

	req := validRequest(db.PaymentMethodCash)
	req.LocationID = 0

	_, err := f.svc.Create(testStudentID, req)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Equal(t, 0, f.repo.createCalls)
	assert.Equal(t, 0, f.payments.createCalls)
}

func TestCreateBookingRejectsPastStart(t *testing.T) {
	f := newBookingFixture()

	req := validRequest(db.PaymentMethodCash)
	req.StartTime = time.Now().UTC().Add(-time.Hour)

	_, err := f.svc.Create(testStudentID, req)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Equal(t, 0, f.repo.createCalls)
}

func TestCreateBookingUnknownInstructor(t *testing.T) {
	f := newBookingFixture()

	req := validRequest(db.PaymentMethodCash)
	req.InstructorID = 99

	_, err := f.svc.Create(testStudentID, req)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Equal(t, 0, f.repo.createCalls)
}

func TestCreateBookingVehicleAtOtherLocation(t *testing.T) {
	f := newBookingFixture()

	req := validRequest(db.PaymentMethodCash)
	vehicleID := 4
	req.VehicleID = &vehicleID

	_, err := f.svc.Create(testStudentID, req)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Equal(t, 0, f.repo.createCalls)
}

func TestCreateCashBookingConfirmedWithoutPayment(t *testing.T) {
	f := newBookingFixture()

	res, err := f.svc.Create(testStudentID, validRequest(db.PaymentMethodCash))

	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusConfirmed, f.repo.lastBooking.Status)
	assert.False(t, f.repo.lastConsume)
	assert.Equal(t, 0, f.payments.createCalls)
	assert.Empty(t, res.RedirectURL)
	require.Len(t, f.notifier.emails, 1)
	assert.Equal(t, db.BookingStatusConfirmed, f.notifier.emails[0].status)
}

func TestCreatePackageBookingConsumesExactlyOneCredit(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.Create(testStudentID, validRequest(db.PaymentMethodPackage))

	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.createCalls)
	assert.True(t, f.repo.lastConsume)
	assert.Equal(t, db.BookingStatusConfirmed, f.repo.lastBooking.Status)
	assert.Equal(t, 0, f.payments.createCalls)
}

func TestCreateOnlineBookingOpensOneCheckoutSession(t *testing.T) {
	f := newBookingFixture()

	req := validRequest(db.PaymentMethodOnline)
	res, err := f.svc.Create(testStudentID, req)

	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusPending, f.repo.lastBooking.Status)
	assert.False(t, f.repo.lastConsume)
	require.Equal(t, 1, f.payments.createCalls)
	assert.Equal(t, int64(6000), f.payments.lastAmount)
	assert.Contains(t, f.payments.lastDesc, req.StartTime.Format("02 Jan 2006 15:04"))
	assert.Equal(t, "https://checkout.stripe.test/session", res.RedirectURL)
	assert.Empty(t, f.notifier.emails)
}

func TestCreateOnlineBookingSurvivesCheckoutFailure(t *testing.T) {
	f := newBookingFixture()
	f.payments.createErr = assert.AnError

	res, err := f.svc.Create(testStudentID, validRequest(db.PaymentMethodOnline))

	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.createCalls)
	assert.Empty(t, res.RedirectURL)
}

func TestCreateBookingSlotConflict(t *testing.T) {
	f := newBookingFixture()
	f.repo.createErr = repository.ErrSlotTaken

	_, err := f.svc.Create(testStudentID, validRequest(db.PaymentMethodCash))

	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
	assert.Equal(t, 0, f.payments.createCalls)
}

func TestCreatePackageBookingInsufficientCredits(t *testing.T) {
	f := newBookingFixture()
	f.repo.createErr = repository.ErrInsufficientCredits

	_, err := f.svc.Create(testStudentID, validRequest(db.PaymentMethodPackage))

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestCreateBookingOutsideWorkingHoursRejected(t *testing.T) {
	f := newBookingFixture()

	req := validRequest(db.PaymentMethodCash)
	req.StartTime = monday.Add(3 * time.Hour)

	_, err := f.svc.Create(testStudentID, req)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Equal(t, 0, f.repo.createCalls)
}

func TestCreateBookingOnDayOffRejected(t *testing.T) {
	f := newBookingFixture()

	// Tuesday, the instructor only works Mondays.
	req := validRequest(db.PaymentMethodCash)
	req.StartTime = monday.Add(24*time.Hour + 10*time.Hour)

	_, err := f.svc.Create(testStudentID, req)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Equal(t, 0, f.repo.createCalls)
}

func TestCreateBookingLessonMustEndWithinWindow(t *testing.T) {
	f := newBookingFixture()

	// 14:00 start runs until 16:00, past the 15:00 close.
	req := validRequest(db.PaymentMethodCash)
	req.StartTime = monday.Add(14 * time.Hour)

	_, err := f.svc.Create(testStudentID, req)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Equal(t, 0, f.repo.createCalls)
}

func TestCreateOnlineBookingSurvivesMissingAccount(t *testing.T) {
	f := newBookingFixture()
	f.svc.Users = &fakeUserRepo{users: map[int]*db.User{}}

	res, err := f.svc.Create(testStudentID, validRequest(db.PaymentMethodOnline))

	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.createCalls)
	assert.Equal(t, 0, f.payments.createCalls)
	assert.Empty(t, res.RedirectURL)
}

func TestCreateBookingInvalidatesSlotCache(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.Create(testStudentID, validRequest(db.PaymentMethodCash))

	require.NoError(t, err)
	assert.Equal(t, []int{1}, f.slots.calls)
}

func seedBooking(f *bookingFixture, method string, startIn time.Duration) *db.Booking {
	b := &db.Booking{
		ID:            200,
		Code:          "abc-123",
		StudentID:     testStudentID,
		InstructorID:  1,
		LocationID:    2,
		StartTime:     time.Now().UTC().Add(startIn),
		EndTime:       time.Now().UTC().Add(startIn + 2*time.Hour),
		Status:        db.BookingStatusConfirmed,
		PaymentMethod: method,
	}
	f.repo.byCode[b.Code] = b
	f.repo.byID[b.ID] = b
	return b
}

func TestCancelInsideCutoffRejected(t *testing.T) {
	f := newBookingFixture()
	seedBooking(f, db.PaymentMethodCash, 6*time.Hour)

	err := f.svc.Cancel("abc-123", testStudentID, false)

	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
	assert.Empty(t, f.repo.statusUpdates)
}

func TestCancelAdminBypassesCutoff(t *testing.T) {
	f := newBookingFixture()
	b := seedBooking(f, db.PaymentMethodCash, 6*time.Hour)

	err := f.svc.Cancel("abc-123", 0, true)

	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusCanceled, f.repo.statusUpdates[b.ID])
}

func TestCancelByOtherStudentLooksLikeMissing(t *testing.T) {
	f := newBookingFixture()
	seedBooking(f, db.PaymentMethodCash, 48*time.Hour)

	err := f.svc.Cancel("abc-123", 999, false)

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestCancelCompletedBookingRejected(t *testing.T) {
	f := newBookingFixture()
	b := seedBooking(f, db.PaymentMethodCash, 48*time.Hour)
	b.Status = db.BookingStatusCompleted

	err := f.svc.Cancel("abc-123", testStudentID, false)

	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
}

func TestCancelReturnsConsumedPackageCredit(t *testing.T) {
	f := newBookingFixture()
	b := seedBooking(f, db.PaymentMethodPackage, 48*time.Hour)
	f.packages.debited[b.ID] = true

	err := f.svc.Cancel("abc-123", testStudentID, false)

	require.NoError(t, err)
	require.Len(t, f.packages.grants, 1)
	grant := f.packages.grants[0]
	assert.Equal(t, testStudentID, grant.userID)
	assert.Equal(t, 1, grant.credits)
	require.NotNil(t, grant.bookingID)
	assert.Equal(t, b.ID, *grant.bookingID)
}

func TestCancelPackageBookingWithoutDebitGrantsNothing(t *testing.T) {
	f := newBookingFixture()
	seedBooking(f, db.PaymentMethodPackage, 48*time.Hour)

	err := f.svc.Cancel("abc-123", testStudentID, false)

	require.NoError(t, err)
	assert.Empty(t, f.packages.grants)
}

func TestCancelRefundsOnlinePayment(t *testing.T) {
	f := newBookingFixture()
	b := seedBooking(f, db.PaymentMethodOnline, 48*time.Hour)

	err := f.svc.Cancel("abc-123", testStudentID, false)

	require.NoError(t, err)
	assert.Equal(t, []int{b.ID}, f.payments.refunded)
	assert.Equal(t, db.BookingStatusCanceled, f.repo.statusUpdates[b.ID])
}

func TestAdminCancelInvalidatesSlotCache(t *testing.T) {
	f := newBookingFixture()
	b := seedBooking(f, db.PaymentMethodCash, 48*time.Hour)

	err := f.svc.AdminUpdateStatus(b.ID, db.BookingStatusCanceled)

	require.NoError(t, err)
	assert.Equal(t, db.BookingStatusCanceled, f.repo.statusUpdates[b.ID])
	assert.Equal(t, []int{b.InstructorID}, f.slots.calls)
}

func TestAdminConfirmLeavesSlotCacheAlone(t *testing.T) {
	f := newBookingFixture()
	b := seedBooking(f, db.PaymentMethodOnline, 48*time.Hour)
	b.Status = db.BookingStatusPending

	err := f.svc.AdminUpdateStatus(b.ID, db.BookingStatusConfirmed)

	require.NoError(t, err)
	assert.Empty(t, f.slots.calls)
}

func TestGetByCodeHidesOtherStudentsBookings(t *testing.T) {
	f := newBookingFixture()
	seedBooking(f, db.PaymentMethodCash, 48*time.Hour)

	_, err := f.svc.GetByCode("abc-123", 999, false)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))

	res, err := f.svc.GetByCode("abc-123", testStudentID, false)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", res.Code)
}
