package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/icco/gobang"
)

// FinishRoomRequest carries the result of a room's game, seen from the host.
type FinishRoomRequest struct {
	Result gobang.GameResult `json:"result"`
}

// @Summary Open a room
// @Description The caller hosts and plays black.
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param room body gobang.NewRoom true "Room"
// @Success 201 {object} gobang.Room
// @Failure 400 {object} ErrorResponse
// @Router /rooms [post]
func (s *server) createRoomHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	var in gobang.NewRoom
	if err := decode(w, r, &in); err != nil {
		renderError(w, r, err)
		return
	}
	in.HostID = user.ID
	in.Name = cleanText(in.Name)

	room, err := s.store.CreateRoom(r.Context(), in)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, room)
}

// @Summary List rooms
// @Description Most recently active first.
// @Tags rooms
// @Produce json
// @Param status query string false "waiting, playing or ended"
// @Param host_id query int false "Host user id"
// @Param limit query int false "Maximum rows"
// @Success 200 {array} gobang.Room
// @Failure 400 {object} ErrorResponse
// @Router /rooms [get]
func (s *server) listRoomsHandler(w http.ResponseWriter, r *http.Request) {
	var f gobang.RoomFilter

	if name := r.URL.Query().Get("status"); name != "" {
		status, err := gobang.ParseRoomStatus(ugcPolicy.Sanitize(name))
		if err != nil {
			renderError(w, r, gobang.Invalid("request", "status", "%v", err))
			return
		}
		f.Status = status
	}

	host, err := queryInt(r, "host_id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		renderError(w, r, err)
		return
	}
	f.HostID = host
	f.Limit = int(limit)

	rooms, err := s.store.ListRooms(r.Context(), f)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, rooms)
}

// @Summary Get a room
// @Tags rooms
// @Produce json
// @Param id path int true "Room id"
// @Success 200 {object} gobang.Room
// @Failure 404 {object} ErrorResponse
// @Router /rooms/{id} [get]
func (s *server) getRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	room, err := s.store.GetRoom(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, room)
}

// @Summary Find a room by its share code
// @Tags rooms
// @Produce json
// @Param code path string true "Room code"
// @Success 200 {object} gobang.Room
// @Failure 404 {object} ErrorResponse
// @Router /rooms/code/{code} [get]
func (s *server) getRoomByCodeHandler(w http.ResponseWriter, r *http.Request) {
	code := ugcPolicy.Sanitize(chi.URLParam(r, "code"))

	room, err := s.store.GetRoomByCode(r.Context(), code)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, room)
}

// seatedRoom loads the room named in the path and returns the side the caller
// plays, or 0 for spectators.
func (s *server) seatedRoom(r *http.Request) (*gobang.Room, int, error) {
	user := getMustUserFromContext(r)

	id, err := idParam(r, "id")
	if err != nil {
		return nil, 0, err
	}
	room, err := s.store.GetRoom(r.Context(), id)
	if err != nil {
		return nil, 0, err
	}

	switch {
	case room.HostID == user.ID:
		return room, gobang.PlayerBlack, nil
	case room.GuestID != nil && *room.GuestID == user.ID:
		return room, gobang.PlayerWhite, nil
	}
	return room, 0, nil
}

// @Summary Rename a room
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room id"
// @Param patch body gobang.RoomPatch true "Fields to change"
// @Success 200 {object} gobang.Room
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /rooms/{id} [patch]
func (s *server) updateRoomHandler(w http.ResponseWriter, r *http.Request) {
	room, seat, err := s.seatedRoom(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if seat != gobang.PlayerBlack {
		forbidden(w, "only the host can change a room")
		return
	}

	var p gobang.RoomPatch
	if err := decode(w, r, &p); err != nil {
		renderError(w, r, err)
		return
	}
	if p.Name != nil {
		name := cleanText(*p.Name)
		p.Name = &name
	}

	updated, err := s.store.UpdateRoom(r.Context(), room.ID, p)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, updated)
}

// @Summary Join a room
// @Description The caller takes the white seat and the game starts.
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room id"
// @Success 200 {object} gobang.Room
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /rooms/{id}/join [post]
func (s *server) joinRoomHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	room, err := s.store.JoinRoom(r.Context(), id, user.ID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, room)
}

// @Summary Play a move in a room
// @Description The side is taken from the caller's seat.
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room id"
// @Param move body gobang.Move true "Move"
// @Success 200 {object} gobang.Room
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /rooms/{id}/moves [post]
func (s *server) roomMoveHandler(w http.ResponseWriter, r *http.Request) {
	room, seat, err := s.seatedRoom(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if seat == 0 {
		forbidden(w, "not a player in this room")
		return
	}

	var m gobang.Move
	if err := decode(w, r, &m); err != nil {
		renderError(w, r, err)
		return
	}
	m.Player = seat
	m.UserID = room.Seat(seat)

	updated, err := s.store.AdvanceRoom(r.Context(), room.ID, m)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, updated)
}

// @Summary Finish a room's game
// @Description Resigns or agrees a draw: records the online game, updates both players' counters and ends the room. A player cannot report their own win.
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room id"
// @Param result body FinishRoomRequest true "Result from the host's side"
// @Success 200 {object} gobang.Room
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /rooms/{id}/finish [post]
func (s *server) finishRoomHandler(w http.ResponseWriter, r *http.Request) {
	room, seat, err := s.seatedRoom(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if seat == 0 {
		forbidden(w, "not a player in this room")
		return
	}

	var req FinishRoomRequest
	if err := decode(w, r, &req); err != nil {
		renderError(w, r, err)
		return
	}

	if (seat == gobang.PlayerBlack && req.Result == gobang.ResultWin) || (seat == gobang.PlayerWhite && req.Result == gobang.ResultLose) {
		renderError(w, r, gobang.Invalid("game", "result", "a player can resign or agree a draw, not claim the win"))
		return
	}

	updated, err := s.store.FinishRoom(r.Context(), room.ID, req.Result)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, updated)
}

// @Summary Close a room
// @Description Ends a room without recording a game.
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room id"
// @Success 200 {object} gobang.Room
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /rooms/{id}/close [post]
func (s *server) closeRoomHandler(w http.ResponseWriter, r *http.Request) {
	room, seat, err := s.seatedRoom(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	if seat == 0 {
		forbidden(w, "not a player in this room")
		return
	}

	updated, err := s.store.CloseRoom(r.Context(), room.ID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, updated)
}
