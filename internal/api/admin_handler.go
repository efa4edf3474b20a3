package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"autoescuela/internal/apperr"
	"autoescuela/internal/entities"
	"autoescuela/internal/service"
)

type AdminHandler struct {
	Bookings *service.BookingService
	Catalog  *service.CatalogService
}

func NewAdminHandler(bookings *service.BookingService, catalog *service.CatalogService) *AdminHandler {
	return &AdminHandler{Bookings: bookings, Catalog: catalog}
}

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	instructorID, _ := strconv.Atoi(q.Get("instructor_id"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	list, err := h.Bookings.ListAdmin(q.Get("date"), q.Get("status"), instructorID, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, apperr.BadRequest("invalid booking id"))
		return
	}
	var req entities.UpdateBookingStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Bookings.AdminUpdateStatus(id, req.Status); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking updated"})
}

func (h *AdminHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if err := h.Bookings.Cancel(code, 0, true); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking canceled"})
}

func (h *AdminHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req entities.UpsertLocationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	loc, err := h.Catalog.CreateLocation(req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, loc)
}

func (h *AdminHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, apperr.BadRequest("invalid location id"))
		return
	}
	var req entities.UpsertLocationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Catalog.UpdateLocation(id, req); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Location updated"})
}

func (h *AdminHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, apperr.BadRequest("invalid location id"))
		return
	}
	if err := h.Catalog.DeleteLocation(id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Location deleted"})
}

func (h *AdminHandler) CreateInstructor(w http.ResponseWriter, r *http.Request) {
	var req entities.UpsertInstructorRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	ins, err := h.Catalog.CreateInstructor(req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ins)
}

func (h *AdminHandler) UpdateInstructor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, apperr.BadRequest("invalid instructor id"))
		return
	}
	var req entities.UpsertInstructorRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Catalog.UpdateInstructor(id, req); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Instructor updated"})
}

func (h *AdminHandler) DeleteInstructor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, apperr.BadRequest("invalid instructor id"))
		return
	}
	if err := h.Catalog.DeleteInstructor(id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Instructor deleted"})
}

func (h *AdminHandler) UpsertSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, apperr.BadRequest("invalid instructor id"))
		return
	}
	var req entities.UpsertScheduleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Catalog.UpsertSchedule(id, req); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Schedule updated"})
}

func (h *AdminHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req entities.UpsertVehicleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	v, err := h.Catalog.CreateVehicle(req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, v)
}

func (h *AdminHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, apperr.BadRequest("invalid vehicle id"))
		return
	}
	var req entities.UpsertVehicleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Catalog.UpdateVehicle(id, req); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Vehicle updated"})
}

func (h *AdminHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, apperr.BadRequest("invalid vehicle id"))
		return
	}
	if err := h.Catalog.DeleteVehicle(id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Vehicle deleted"})
}
