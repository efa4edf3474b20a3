package service

import (
	"time"

	"autoescuela/internal/db"
	"autoescuela/internal/entities"
	"autoescuela/internal/repository"
)

// Hand-written fakes for the repository and payment seams. Each records
// the calls the tests care about.

type fakeBookingRepo struct {
	createCalls    int
	lastBooking    *db.Booking
	lastConsume    bool
	createErr      error
	byCode         map[string]*db.Booking
	byID           map[int]*db.Booking
	statusUpdates  map[int]string
	live           []db.Booking
	responseByCode map[string]*entities.BookingResponse
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		byCode:         map[string]*db.Booking{},
		byID:           map[int]*db.Booking{},
		statusUpdates:  map[int]string{},
		responseByCode: map[string]*entities.BookingResponse{},
	}
}

func (f *fakeBookingRepo) Create(b *db.Booking, consumeCredit bool) error {
	f.createCalls++
	f.lastConsume = consumeCredit
	if f.createErr != nil {
		return f.createErr
	}
	b.ID = 100 + f.createCalls
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	f.lastBooking = b
	f.byCode[b.Code] = b
	f.byID[b.ID] = b
	return nil
}

func (f *fakeBookingRepo) GetByCode(code string) (*db.Booking, error) {
	b, ok := f.byCode[code]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) GetByID(id int) (*db.Booking, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) GetResponseByCode(code string) (*entities.BookingResponse, error) {
	if r, ok := f.responseByCode[code]; ok {
		return r, nil
	}
	b, err := f.GetByCode(code)
	if err != nil {
		return nil, err
	}
	return f.toResponse(b), nil
}

func (f *fakeBookingRepo) GetResponseByID(id int) (*entities.BookingResponse, error) {
	b, err := f.GetByID(id)
	if err != nil {
		return nil, err
	}
	return f.toResponse(b), nil
}

func (f *fakeBookingRepo) toResponse(b *db.Booking) *entities.BookingResponse {
	return &entities.BookingResponse{
		ID:            b.ID,
		Code:          b.Code,
		StudentName:   "Ana Torres",
		StudentEmail:  "ana@example.com",
		StudentPhone:  "+34600000000",
		InstructorID:  b.InstructorID,
		LocationID:    b.LocationID,
		VehicleID:     b.VehicleID,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Status:        b.Status,
		PaymentMethod: b.PaymentMethod,
	}
}

func (f *fakeBookingRepo) ListByStudent(studentID, limit, offset int) (*entities.BookingsList, error) {
	return &entities.BookingsList{Limit: limit, Offset: offset, Bookings: []entities.BookingResponse{}}, nil
}

func (f *fakeBookingRepo) ListAdmin(date, status string, instructorID, limit, offset int) (*entities.BookingsList, error) {
	return &entities.BookingsList{Limit: limit, Offset: offset, Bookings: []entities.BookingResponse{}}, nil
}

func (f *fakeBookingRepo) ListLiveByInstructorBetween(instructorID int, from, to time.Time) ([]db.Booking, error) {
	return f.live, nil
}

func (f *fakeBookingRepo) UpdateStatus(id int, status string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrBookingNotFound
	}
	f.statusUpdates[id] = status
	f.byID[id].Status = status
	return nil
}

type fakeCatalogRepo struct {
	instructors map[int]*db.Instructor
	locations   map[int]*db.Location
	vehicles    map[int]*db.Vehicle
	schedule    []db.SchedulePeriod
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		instructors: map[int]*db.Instructor{},
		locations:   map[int]*db.Location{},
		vehicles:    map[int]*db.Vehicle{},
	}
}

func (f *fakeCatalogRepo) ListLocations() ([]db.Location, error)       { return nil, nil }
func (f *fakeCatalogRepo) GetLocation(id int) (*db.Location, error)    { return f.locations[id], nil }
func (f *fakeCatalogRepo) CreateLocation(loc *db.Location) error       { return nil }
func (f *fakeCatalogRepo) UpdateLocation(loc *db.Location) error       { return nil }
func (f *fakeCatalogRepo) DeleteLocation(id int) error                 { return nil }
func (f *fakeCatalogRepo) ListInstructors(locationID int) ([]db.Instructor, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) GetInstructor(id int) (*db.Instructor, error) { return f.instructors[id], nil }
func (f *fakeCatalogRepo) CreateInstructor(ins *db.Instructor) error    { return nil }
func (f *fakeCatalogRepo) UpdateInstructor(ins *db.Instructor) error    { return nil }
func (f *fakeCatalogRepo) DeleteInstructor(id int) error                { return nil }
func (f *fakeCatalogRepo) GetSchedule(instructorID int) ([]db.SchedulePeriod, error) {
	return f.schedule, nil
}
func (f *fakeCatalogRepo) ReplaceSchedule(instructorID int, periods []db.SchedulePeriod) error {
	f.schedule = periods
	return nil
}
func (f *fakeCatalogRepo) ListAvailableVehicles(startTime, endTime time.Time, locationID int, category string) ([]db.Vehicle, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) GetVehicle(id int) (*db.Vehicle, error) { return f.vehicles[id], nil }
func (f *fakeCatalogRepo) CreateVehicle(v *db.Vehicle) error      { return nil }
func (f *fakeCatalogRepo) UpdateVehicle(v *db.Vehicle) error      { return nil }
func (f *fakeCatalogRepo) DeleteVehicle(id int) error             { return nil }

type grantCall struct {
	userID    int
	packageID *int
	bookingID *int
	credits   int
	reason    string
}

type debitCall struct {
	userID    int
	bookingID int
	credits   int
}

type fakePackageRepo struct {
	packages map[int]*db.Package
	balance  int
	debits   []debitCall
	debitErr error
	grants   []grantCall
	debited  map[int]bool
}

func newFakePackageRepo() *fakePackageRepo {
	return &fakePackageRepo{packages: map[int]*db.Package{}, debited: map[int]bool{}}
}

func (f *fakePackageRepo) ListActive() ([]db.Package, error) {
	var active []db.Package
	for _, p := range f.packages {
		if p.Active {
			active = append(active, *p)
		}
	}
	return active, nil
}
func (f *fakePackageRepo) GetByID(id int) (*db.Package, error) { return f.packages[id], nil }
func (f *fakePackageRepo) GetBalance(userID int) (int, error)  { return f.balance, nil }
func (f *fakePackageRepo) Debit(userID, bookingID, credits int) error {
	if f.debitErr != nil {
		return f.debitErr
	}
	f.debits = append(f.debits, debitCall{userID, bookingID, credits})
	f.debited[bookingID] = true
	return nil
}
func (f *fakePackageRepo) Grant(userID int, packageID *int, bookingID *int, credits int, reason string) error {
	f.grants = append(f.grants, grantCall{userID, packageID, bookingID, credits, reason})
	return nil
}
func (f *fakePackageRepo) HasDebitForBooking(bookingID int) (bool, error) {
	return f.debited[bookingID], nil
}

type fakeUserRepo struct {
	users map[int]*db.User
}

func (f *fakeUserRepo) GetByEmail(email string) (*db.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (f *fakeUserRepo) GetByID(id int) (*db.User, error) { return f.users[id], nil }
func (f *fakeUserRepo) Create(user *db.User) error {
	user.ID = len(f.users) + 1
	f.users[user.ID] = user
	return nil
}

type fakePayments struct {
	createCalls int
	lastAmount  int64
	lastDesc    string
	createErr   error
	refunded    []int
}

func (f *fakePayments) CreateBookingPayment(user *db.User, booking *entities.BookingResponse, amountCents int64, description string) (*entities.PaymentSessionResponse, error) {
	f.createCalls++
	f.lastAmount = amountCents
	f.lastDesc = description
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &entities.PaymentSessionResponse{RedirectURL: "https://checkout.stripe.test/session", SessionID: "cs_test_123"}, nil
}

func (f *fakePayments) RefundBooking(bookingID int) error {
	f.refunded = append(f.refunded, bookingID)
	return nil
}

type notification struct {
	code   string
	status string
}

type fakeNotifier struct {
	emails []notification
	sms    []notification
}

func (f *fakeNotifier) SendBookingEmail(booking entities.BookingResponse, status string) {
	f.emails = append(f.emails, notification{booking.Code, status})
}

func (f *fakeNotifier) SendBookingSMS(booking entities.BookingResponse, status string) {
	f.sms = append(f.sms, notification{booking.Code, status})
}

type fakeSlotInvalidator struct {
	calls []int
}

func (f *fakeSlotInvalidator) InvalidateSlots(instructorID int, startTime time.Time) {
	f.calls = append(f.calls, instructorID)
}
