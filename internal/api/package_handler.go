package api

import (
	"net/http"

	"autoescuela/internal/apperr"
	"autoescuela/internal/auth"
	"autoescuela/internal/entities"
	"autoescuela/internal/service"
)

type PackageHandler struct {
	Service *service.PackageService
}

func NewPackageHandler(svc *service.PackageService) *PackageHandler {
	return &PackageHandler{Service: svc}
}

func (h *PackageHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.Service.ListPackages()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, packages)
}

func (h *PackageHandler) GetUserCredits(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("authentication required"))
		return
	}
	credits, err := h.Service.GetUserCredits(claims.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, credits)
}

func (h *PackageHandler) UseCredits(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("authentication required"))
		return
	}
	var req entities.UseCreditsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Service.UseCredits(claims.UserID, req); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Credits applied"})
}

func (h *PackageHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("authentication required"))
		return
	}
	var req entities.PurchasePackageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	session, err := h.Service.Purchase(claims.UserID, req.PackageID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}
