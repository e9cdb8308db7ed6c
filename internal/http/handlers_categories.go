package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type categoryResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Icon             string `json:"icon"`
	Color            string `json:"color"`
	TransactionCount int64  `json:"transaction_count"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:               c.ID,
		Name:             c.Name,
		Type:             string(c.Type),
		Icon:             string(c.Icon),
		Color:            string(c.Color),
		TransactionCount: c.TransactionCount,
	}
}

func (req categoryRequest) toDomain(id string) core.Category {
	return core.Category{
		ID:    id,
		Name:  req.Name,
		Type:  core.TransactionType(req.Type),
		Icon:  core.ResolveIcon(core.IconKey(req.Icon)),
		Color: core.ResolveColor(core.ColorToken(req.Color)),
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.repo.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	category := req.toDomain(uuid.NewString())
	if err := category.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.repo.CreateCategory(r.Context(), category); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	category := req.toDomain(chi.URLParam(r, "id"))
	if err := category.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.repo.UpdateCategory(r.Context(), category); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
