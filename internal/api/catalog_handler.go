package api

import (
	"net/http"
	"strconv"

	"autoescuela/internal/entities"
	"autoescuela/internal/service"
)

type CatalogHandler struct {
	Service *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: svc}
}

func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Service.ListLocations()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, locations)
}

func (h *CatalogHandler) ListInstructors(w http.ResponseWriter, r *http.Request) {
	locationID, _ := strconv.Atoi(r.URL.Query().Get("location_id"))
	instructors, err := h.Service.ListInstructors(locationID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, instructors)
}

func (h *CatalogHandler) GetAvailableVehicles(w http.ResponseWriter, r *http.Request) {
	var req entities.VehicleAvailabilityRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	vehicles, err := h.Service.GetAvailableVehicles(req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, vehicles)
}
