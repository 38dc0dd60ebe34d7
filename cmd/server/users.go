package main

import (
	"net/http"
	"strings"

	"github.com/icco/gobang"
)

// @Summary Register a user
// @Description Creates a user. The password is stored as a bcrypt hash.
// @Tags users
// @Accept json
// @Produce json
// @Param user body gobang.NewUser true "New user"
// @Success 201 {object} gobang.User
// @Failure 400 {object} ErrorResponse
// @Router /users [post]
func (s *server) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var in gobang.NewUser
	if err := decode(w, r, &in); err != nil {
		renderError(w, r, err)
		return
	}
	in.Username = cleanText(in.Username)
	in.Nickname = cleanText(in.Nickname)

	u, err := s.store.CreateUser(r.Context(), in)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, u)
}

// @Summary List users
// @Description Lists users by id, or as a leaderboard with order=wins.
// @Tags users
// @Produce json
// @Param prefix query string false "Username prefix"
// @Param order query string false "wins for leaderboard order"
// @Param limit query int false "Maximum rows"
// @Success 200 {array} gobang.User
// @Failure 400 {object} ErrorResponse
// @Router /users [get]
func (s *server) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		renderError(w, r, err)
		return
	}

	q := r.URL.Query()
	users, err := s.store.ListUsers(r.Context(), gobang.UserFilter{
		UsernamePrefix: ugcPolicy.Sanitize(q.Get("prefix")),
		OrderByWins:    strings.EqualFold(q.Get("order"), "wins"),
		Limit:          int(limit),
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, users)
}

// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User id"
// @Success 200 {object} gobang.User
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (s *server) getUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	u, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, u)
}

// @Summary Get the calling user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gobang.User
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (s *server) meHandler(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, getMustUserFromContext(r))
}

// @Summary Update the calling user
// @Description Changes nickname or password. Counters cannot be patched.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param patch body gobang.UserPatch true "Fields to change"
// @Success 200 {object} gobang.User
// @Failure 400 {object} ErrorResponse
// @Router /users/me [patch]
func (s *server) updateMeHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	var p gobang.UserPatch
	if err := decode(w, r, &p); err != nil {
		renderError(w, r, err)
		return
	}
	if p.Nickname != nil {
		nick := cleanText(*p.Nickname)
		p.Nickname = &nick
	}

	u, err := s.store.UpdateUser(r.Context(), user.ID, p)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, u)
}

// @Summary Delete the calling user
// @Description Only users nothing references can be deleted.
// @Tags users
// @Security BearerAuth
// @Success 204
// @Failure 422 {object} ErrorResponse
// @Router /users/me [delete]
func (s *server) deleteMeHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	if err := s.store.DeleteUser(r.Context(), user.ID); err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
