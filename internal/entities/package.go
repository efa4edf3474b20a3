package entities

type PackageResponse struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Credits    int    `json:"credits"`
	PriceCents int64  `json:"price_cents"`
}

type UserCreditsResponse struct {
	TotalCredits int `json:"total_credits"`
}

type UseCreditsRequest struct {
	BookingID    int `json:"booking_id" validate:"required"`
	CreditsToUse int `json:"credits_to_use" validate:"required,min=1"`
}

type PurchasePackageRequest struct {
	PackageID int `json:"package_id" validate:"required"`
}
