package handlers

import (
	"errors"
	"net/http"

	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/ratings"
	"github.com/arenaline/chess-arena/services"
)

type RatingHandler struct {
	ratingService services.RatingService
}

func NewRatingHandler(ratingService services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// Preview shows what a hypothetical result between two competitors would do
// to their ratings without recording anything.
func (h *RatingHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CompetitorID int                 `json:"competitor_id"`
		OpponentID   int                 `json:"opponent_id"`
		Outcome      models.MatchOutcome `json:"outcome"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.CompetitorID <= 0 || input.OpponentID <= 0 {
		badRequestResponse(w, r, errors.New("competitor_id and opponent_id are required"))
		return
	}

	preview, err := h.ratingService.Preview(r.Context(), input.CompetitorID, input.OpponentID, input.Outcome)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"preview": preview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RatingHandler) RequiredRating(w http.ResponseWriter, r *http.Request) {
	var input struct {
		OpponentRating int     `json:"opponent_rating"`
		TargetScore    float64 `json:"target_score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	required, err := h.ratingService.RequiredRating(input.OpponentRating, input.TargetScore)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"required_rating": required}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RatingHandler) Performance(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Results []ratings.GameResult `json:"results"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	for _, result := range input.Results {
		if !result.Outcome.Valid() {
			badRequestResponse(w, r, errors.New("results contain an invalid outcome"))
			return
		}
	}

	performance := h.ratingService.Performance(input.Results)

	if err := writeJSON(w, http.StatusOK, jsonResponse{"performance_rating": performance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RatingHandler) Reliability(w http.ResponseWriter, r *http.Request) {
	competitorID, err := idParam(r, "competitorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var variance float64
	if raw := r.URL.Query().Get("variance"); raw != "" {
		parsed, parseErr := parseFloatParam(raw)
		if parseErr != nil {
			badRequestResponse(w, r, parseErr)
			return
		}
		variance = parsed
	}

	reliability, err := h.ratingService.Reliability(r.Context(), competitorID, variance)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"reliability": reliability}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
