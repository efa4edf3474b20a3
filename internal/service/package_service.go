package service

import (
	"errors"

	"autoescuela/internal/apperr"
	"autoescuela/internal/db"
	"autoescuela/internal/entities"
	"autoescuela/internal/repository"
)

type packagePayments interface {
	CreatePackagePayment(user *db.User, pkg *db.Package) (*entities.PaymentSessionResponse, error)
}

type PackageService struct {
	Repo     repository.PackageRepository
	Bookings repository.BookingRepository
	Users    repository.UserRepository
	Payments packagePayments
}

func (s *PackageService) ListPackages() ([]entities.PackageResponse, error) {
	packages, err := s.Repo.ListActive()
	if err != nil {
		return nil, err
	}
	res := make([]entities.PackageResponse, 0, len(packages))
	for _, p := range packages {
		res = append(res, entities.PackageResponse{
			ID: p.ID, Name: p.Name, Credits: p.Credits, PriceCents: p.PriceCents,
		})
	}
	return res, nil
}

func (s *PackageService) GetUserCredits(userID int) (*entities.UserCreditsResponse, error) {
	balance, err := s.Repo.GetBalance(userID)
	if err != nil {
		return nil, err
	}
	return &entities.UserCreditsResponse{TotalCredits: balance}, nil
}

// UseCredits debits credits against a booking the caller owns. At most
// one debit per booking.
func (s *PackageService) UseCredits(userID int, req entities.UseCreditsRequest) error {
	booking, err := s.Bookings.GetByID(req.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return apperr.NotFound("booking not found")
		}
		return err
	}
	if booking.StudentID != userID {
		return apperr.NotFound("booking not found")
	}

	debited, err := s.Repo.HasDebitForBooking(booking.ID)
	if err != nil {
		return err
	}
	if debited {
		return apperr.Conflict("credits were already used for this booking")
	}

	if err := s.Repo.Debit(userID, booking.ID, req.CreditsToUse); err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return apperr.BadRequest("not enough credits")
		}
		return err
	}
	return nil
}

// Purchase opens a checkout session for a package; credits land when the
// payment webhook confirms it.
func (s *PackageService) Purchase(userID int, packageID int) (*entities.PaymentSessionResponse, error) {
	pkg, err := s.Repo.GetByID(packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil || !pkg.Active {
		return nil, apperr.NotFound("package not found")
	}

	user, err := s.Users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorized("unknown account")
	}

	return s.Payments.CreatePackagePayment(user, pkg)
}
