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

type fakePackageCheckout struct {
	calls   int
	lastPkg *db.Package
	session *entities.PaymentSessionResponse
}

func (f *fakePackageCheckout) CreatePackagePayment(user *db.User, pkg *db.Package) (*entities.PaymentSessionResponse, error) {
	f.calls++
	f.lastPkg = pkg
	return f.session, nil
}

type packageFixture struct {
	svc      *PackageService
	repo     *fakePackageRepo
	bookings *fakeBookingRepo
	checkout *fakePackageCheckout
}

func newPackageFixture() *packageFixture {
	f := &packageFixture{
		repo:     newFakePackageRepo(),
		bookings: newFakeBookingRepo(),
		checkout: &fakePackageCheckout{session: &entities.PaymentSessionResponse{RedirectURL: "https://checkout.stripe.test/pkg"}},
	}
	f.svc = &PackageService{
		Repo:     f.repo,
		Bookings: f.bookings,
		Users:    &fakeUserRepo{users: map[int]*db.User{testStudentID: {ID: testStudentID, Email: "ana@example.com"}}},
		Payments: f.checkout,
	}
	return f
}

func (f *packageFixture) seedBooking(id int, studentID int) *db.Booking {
	b := &db.Booking{
		ID:            id,
		Code:          "pkg-booking",
		StudentID:     studentID,
		StartTime:     time.Now().UTC().Add(48 * time.Hour),
		Status:        db.BookingStatusConfirmed,
		PaymentMethod: db.PaymentMethodPackage,
	}
	f.bookings.byID[id] = b
	f.bookings.byCode[b.Code] = b
	return b
}

func TestUseCreditsDebitsOnce(t *testing.T) {
	f := newPackageFixture()
	f.seedBooking(200, testStudentID)

	err := f.svc.UseCredits(testStudentID, entities.UseCreditsRequest{BookingID: 200, CreditsToUse: 1})

	require.NoError(t, err)
	require.Len(t, f.repo.debits, 1)
	assert.Equal(t, debitCall{userID: testStudentID, bookingID: 200, credits: 1}, f.repo.debits[0])
}

func TestUseCreditsUnknownBooking(t *testing.T) {
	f := newPackageFixture()

	err := f.svc.UseCredits(testStudentID, entities.UseCreditsRequest{BookingID: 404, CreditsToUse: 1})

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
	assert.Empty(t, f.repo.debits)
}

func TestUseCreditsOnSomeoneElsesBooking(t *testing.T) {
	f := newPackageFixture()
	f.seedBooking(200, 999)

	err := f.svc.UseCredits(testStudentID, entities.UseCreditsRequest{BookingID: 200, CreditsToUse: 1})

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
	assert.Empty(t, f.repo.debits)
}

func TestUseCreditsSecondDebitRejected(t *testing.T) {
	f := newPackageFixture()
	f.seedBooking(200, testStudentID)
	req := entities.UseCreditsRequest{BookingID: 200, CreditsToUse: 1}

	require.NoError(t, f.svc.UseCredits(testStudentID, req))

	err := f.svc.UseCredits(testStudentID, req)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperr.StatusOf(err))
	assert.Len(t, f.repo.debits, 1)
}

func TestUseCreditsInsufficientBalance(t *testing.T) {
	f := newPackageFixture()
	f.seedBooking(200, testStudentID)
	f.repo.debitErr = repository.ErrInsufficientCredits

	err := f.svc.UseCredits(testStudentID, entities.UseCreditsRequest{BookingID: 200, CreditsToUse: 1})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestGetUserCreditsReturnsLedgerBalance(t *testing.T) {
	f := newPackageFixture()
	f.repo.balance = 7

	res, err := f.svc.GetUserCredits(testStudentID)

	require.NoError(t, err)
	assert.Equal(t, 7, res.TotalCredits)
}

func TestPurchaseOpensCheckoutForActivePackage(t *testing.T) {
	f := newPackageFixture()
	f.repo.packages[5] = &db.Package{ID: 5, Name: "Ten lessons", Credits: 10, PriceCents: 45000, Active: true}

	res, err := f.svc.Purchase(testStudentID, 5)

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/pkg", res.RedirectURL)
	require.Equal(t, 1, f.checkout.calls)
	assert.Equal(t, 5, f.checkout.lastPkg.ID)
}

func TestPurchaseInactivePackageRejected(t *testing.T) {
	f := newPackageFixture()
	f.repo.packages[5] = &db.Package{ID: 5, Name: "Retired deal", Credits: 10, Active: false}

	_, err := f.svc.Purchase(testStudentID, 5)

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
	assert.Equal(t, 0, f.checkout.calls)
}
