package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/arenaline/chess-arena/middleware"
	"github.com/arenaline/chess-arena/services"
)

type CompetitorHandler struct {
	competitorService services.CompetitorService
}

func NewCompetitorHandler(competitorService services.CompetitorService) *CompetitorHandler {
	return &CompetitorHandler{competitorService: competitorService}
}

func (h *CompetitorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "competitorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	competitor, err := h.competitorService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competitor": competitor}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CompetitorHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	var limit, offset int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, _ = strconv.Atoi(raw)
	}

	competitors, err := h.competitorService.Leaderboard(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": competitors}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CompetitorHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	currentID, err := middleware.CompetitorIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	requestedID, err := idParam(r, "competitorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if requestedID != currentID {
		errorResponse(w, r, http.StatusForbidden, "cannot change another competitor's avatar")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get avatar file from form: %w", err))
		return
	}
	defer file.Close()

	competitor, err := h.competitorService.UploadAvatar(r.Context(), currentID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competitor": competitor}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
