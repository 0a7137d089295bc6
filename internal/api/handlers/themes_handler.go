package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/produckai/voc-engine/internal/api/response"
	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// ThemesReader defines the read interface for themes.
type ThemesReader interface {
	ListActive(ctx context.Context) (*models.ListThemesResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Theme, error)
	ListMembers(ctx context.Context, themeID uuid.UUID) ([]models.ThemeMember, error)
}

// ThemesHandler handles HTTP requests for themes.
type ThemesHandler struct {
	themes ThemesReader
}

// NewThemesHandler creates a new themes handler.
func NewThemesHandler(themes ThemesReader) *ThemesHandler {
	return &ThemesHandler{themes: themes}
}

// List handles GET /v1/themes.
func (h *ThemesHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.themes.ListActive(r.Context())
	if err != nil {
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}

// ThemeDetail is a theme with its membership rows.
type ThemeDetail struct {
	models.Theme

	Members []models.ThemeMember `json:"members"`
}

// Get handles GET /v1/themes/{id}.
func (h *ThemesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	theme, err := h.themes.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, vocerrors.ErrNotFound) {
			response.RespondNotFound(w, "Theme not found")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	members, err := h.themes.ListMembers(r.Context(), id)
	if err != nil {
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, ThemeDetail{Theme: *theme, Members: members})
}
