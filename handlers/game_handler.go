package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arenaline/chess-arena/middleware"
	"github.com/arenaline/chess-arena/models"
	"github.com/arenaline/chess-arena/services"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gameService services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	player1ID, err := middleware.CompetitorIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		OpponentID int  `json:"opponent_id"`
		Rated      bool `json:"rated"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.OpponentID <= 0 {
		badRequestResponse(w, r, errors.New("opponent_id is required"))
		return
	}
	if input.OpponentID == player1ID {
		badRequestResponse(w, r, errors.New("cannot play against yourself"))
		return
	}

	session, err := h.gameService.StartGame(r.Context(), player1ID, input.OpponentID, input.Rated)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var input struct {
		FEN string `json:"fen"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.FEN == "" {
		badRequestResponse(w, r, errors.New("fen is required"))
		return
	}

	if err := h.gameService.UpdatePosition(r.Context(), sessionID, input.FEN); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "position updated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Hint(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	move, err := h.gameService.Hint(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"best_move": move}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	score, err := h.gameService.Evaluate(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"score": score}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Finish(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var input struct {
		Outcome models.MatchOutcome `json:"outcome"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.gameService.FinishGame(r.Context(), sessionID, input.Outcome)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
