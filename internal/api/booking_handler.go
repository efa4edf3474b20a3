package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"autoescuela/internal/apperr"
	"autoescuela/internal/auth"
	"autoescuela/internal/db"
	"autoescuela/internal/entities"
	"autoescuela/internal/service"
)

type BookingHandler struct {
	Bookings     *service.BookingService
	Availability *service.AvailabilityService
}

func NewBookingHandler(bookings *service.BookingService, availability *service.AvailabilityService) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Availability: availability}
}

func (h *BookingHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	instructorID, err := strconv.Atoi(r.URL.Query().Get("instructor_id"))
	if err != nil || instructorID <= 0 {
		respondError(w, apperr.BadRequest("instructor_id is required"))
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		respondError(w, apperr.BadRequest("date is required"))
		return
	}

	slots, err := h.Availability.GetAvailableSlots(instructorID, date)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, slots)
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("authentication required"))
		return
	}

	var req entities.CreateBookingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	res, err := h.Bookings.Create(claims.UserID, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (h *BookingHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("authentication required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.Bookings.ListMine(claims.UserID, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("authentication required"))
		return
	}
	code := mux.Vars(r)["code"]

	booking, err := h.Bookings.GetByCode(code, claims.UserID, claims.Role == db.RoleAdmin)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("authentication required"))
		return
	}
	code := mux.Vars(r)["code"]

	if err := h.Bookings.Cancel(code, claims.UserID, claims.Role == db.RoleAdmin); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking canceled"})
}
