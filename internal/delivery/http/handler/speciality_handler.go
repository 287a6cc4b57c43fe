package handler

import (
	"net/http"

	"medhead-reservation/internal/delivery/dto"
	"medhead-reservation/internal/service"
	"medhead-reservation/pkg/response"
)

type SpecialityHandler struct {
	catalog *service.SpecialityCatalog
}

func NewSpecialityHandler(catalog *service.SpecialityCatalog) *SpecialityHandler {
	return &SpecialityHandler{catalog: catalog}
}

func (h *SpecialityHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	names := h.catalog.Names()
	response.Success(w, http.StatusOK, "Specialities retrieved successfully", dto.SpecialityListResponse{
		Specialities: names,
		Total:        len(names),
	})
}

// Search is the stateless variant of the form's suggestion list
func (h *SpecialityHandler) Search(w http.ResponseWriter, r *http.Request) {
	matches := h.catalog.Filter(r.URL.Query().Get("q"))
	response.Success(w, http.StatusOK, "Specialities retrieved successfully", dto.SpecialityListResponse{
		Specialities: matches,
		Total:        len(matches),
	})
}
