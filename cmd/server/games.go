package main

import (
	"net/http"
	"slices"

	"github.com/icco/gobang"
)

// GameResultRequest is the body of a result submission.
type GameResultRequest struct {
	Result   gobang.GameResult `json:"result"`
	WinnerID *int64            `json:"winner_id,omitempty"`
}

// @Summary Start a game
// @Description Records a new game with the caller in the first seat.
// @Tags games
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param game body gobang.Game true "Game"
// @Success 201 {object} gobang.Game
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /games [post]
func (s *server) createGameHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	var g gobang.Game
	if err := decode(w, r, &g); err != nil {
		renderError(w, r, err)
		return
	}
	if g.User1ID != 0 && g.User1ID != user.ID {
		forbidden(w, "games are created from the first seat")
		return
	}
	g.User1ID = user.ID

	if err := s.store.CreateGame(r.Context(), &g); err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, g)
}

// @Summary List the caller's games
// @Description Newest first.
// @Tags games
// @Produce json
// @Security BearerAuth
// @Param mode query string false "Game mode"
// @Param finished query bool false "Only finished games"
// @Param limit query int false "Maximum rows"
// @Success 200 {array} gobang.Game
// @Router /games [get]
func (s *server) listGamesHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	limit, err := queryInt(r, "limit")
	if err != nil {
		renderError(w, r, err)
		return
	}

	q := r.URL.Query()
	games, err := s.store.ListGames(r.Context(), gobang.GameFilter{
		UserID:       user.ID,
		Mode:         gobang.GameMode(ugcPolicy.Sanitize(q.Get("mode"))),
		FinishedOnly: q.Get("finished") == "true",
		Limit:        int(limit),
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, games)
}

// @Summary Get a game
// @Tags games
// @Produce json
// @Param id path int true "Game id"
// @Success 200 {object} gobang.Game
// @Failure 404 {object} ErrorResponse
// @Router /games/{id} [get]
func (s *server) getGameHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	g, err := s.store.GetGame(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, g)
}

// playedGame loads the game named in the path and reports whether the caller
// sat at it.
func (s *server) playedGame(r *http.Request) (*gobang.Game, bool, error) {
	user := getMustUserFromContext(r)

	id, err := idParam(r, "id")
	if err != nil {
		return nil, false, err
	}
	g, err := s.store.GetGame(r.Context(), id)
	if err != nil {
		return nil, false, err
	}
	return g, slices.Contains(g.Participants(), user.ID), nil
}

// @Summary Update a game in progress
// @Tags games
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game id"
// @Param patch body gobang.GamePatch true "Fields to change"
// @Success 200 {object} gobang.Game
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /games/{id} [patch]
func (s *server) updateGameHandler(w http.ResponseWriter, r *http.Request) {
	g, ok, err := s.playedGame(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if !ok {
		forbidden(w, "not a player in this game")
		return
	}

	var p gobang.GamePatch
	if err := decode(w, r, &p); err != nil {
		renderError(w, r, err)
		return
	}

	updated, err := s.store.UpdateGame(r.Context(), g.ID, p)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, updated)
}

// @Summary Append a move
// @Description The player defaults to the side to move.
// @Tags games
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game id"
// @Param move body gobang.Move true "Move"
// @Success 200 {object} gobang.Game
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /games/{id}/moves [post]
func (s *server) gameMoveHandler(w http.ResponseWriter, r *http.Request) {
	g, ok, err := s.playedGame(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if !ok {
		forbidden(w, "not a player in this game")
		return
	}

	var m gobang.Move
	if err := decode(w, r, &m); err != nil {
		renderError(w, r, err)
		return
	}

	updated, err := s.store.AppendGameMove(r.Context(), g.ID, m)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, updated)
}

// @Summary Record a game's result
// @Description Finalizes the game and updates both players' counters. Results are from the first seat's side.
// @Tags games
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game id"
// @Param result body GameResultRequest true "Result"
// @Success 200 {object} gobang.Game
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /games/{id}/result [post]
func (s *server) gameResultHandler(w http.ResponseWriter, r *http.Request) {
	g, ok, err := s.playedGame(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if !ok {
		forbidden(w, "not a player in this game")
		return
	}

	var req GameResultRequest
	if err := decode(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	updated, err := s.store.RecordGameResult(r.Context(), g.ID, req.Result, req.WinnerID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, updated)
}
