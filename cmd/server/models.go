package main

import (
	"net/http"
	"strings"

	"github.com/icco/gobang"
)

// @Summary Register a trained model
// @Description Stores model metadata for the caller. A default model replaces the caller's previous default.
// @Tags models
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param model body gobang.Model true "Model"
// @Success 201 {object} gobang.Model
// @Failure 400 {object} ErrorResponse
// @Router /models [post]
func (s *server) createModelHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	var m gobang.Model
	if err := decode(w, r, &m); err != nil {
		renderError(w, r, err)
		return
	}
	m.UserID = user.ID
	m.Name = cleanText(m.Name)

	if err := s.store.CreateModel(r.Context(), &m); err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, m)
}

// @Summary List the caller's models
// @Tags models
// @Produce json
// @Security BearerAuth
// @Param type query string false "Model type"
// @Param default query bool false "Only the default model"
// @Success 200 {array} gobang.Model
// @Router /models [get]
func (s *server) listModelsHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)
	q := r.URL.Query()

	models, err := s.store.ListModels(r.Context(), gobang.ModelFilter{
		UserID:      user.ID,
		Type:        gobang.ModelType(ugcPolicy.Sanitize(q.Get("type"))),
		DefaultOnly: strings.EqualFold(q.Get("default"), "true"),
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, models)
}

// @Summary Get the caller's default model
// @Tags models
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gobang.Model
// @Failure 404 {object} ErrorResponse
// @Router /models/default [get]
func (s *server) defaultModelHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	m, err := s.store.DefaultModel(r.Context(), user.ID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, m)
}

// ownModel loads a model and checks the caller owns it. Other users' models
// are reported as missing.
func (s *server) ownModel(r *http.Request) (*gobang.Model, error) {
	user := getMustUserFromContext(r)

	id, err := idParam(r, "id")
	if err != nil {
		return nil, err
	}
	m, err := s.store.GetModel(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if m.UserID != user.ID {
		return nil, gobang.NotFound("model", id)
	}
	return m, nil
}

// @Summary Get a model
// @Tags models
// @Produce json
// @Security BearerAuth
// @Param id path int true "Model id"
// @Success 200 {object} gobang.Model
// @Failure 404 {object} ErrorResponse
// @Router /models/{id} [get]
func (s *server) getModelHandler(w http.ResponseWriter, r *http.Request) {
	m, err := s.ownModel(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, m)
}

// @Summary Update a model
// @Tags models
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Model id"
// @Param patch body gobang.ModelPatch true "Fields to change"
// @Success 200 {object} gobang.Model
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /models/{id} [patch]
func (s *server) updateModelHandler(w http.ResponseWriter, r *http.Request) {
	m, err := s.ownModel(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	var p gobang.ModelPatch
	if err := decode(w, r, &p); err != nil {
		renderError(w, r, err)
		return
	}
	if p.Name != nil {
		name := cleanText(*p.Name)
		p.Name = &name
	}

	updated, err := s.store.UpdateModel(r.Context(), m.ID, p)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, updated)
}

// @Summary Make a model the caller's default
// @Tags models
// @Produce json
// @Security BearerAuth
// @Param id path int true "Model id"
// @Success 200 {object} gobang.Model
// @Failure 404 {object} ErrorResponse
// @Router /models/{id}/default [post]
func (s *server) setDefaultModelHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	if err := s.store.SetDefaultModel(r.Context(), user.ID, id); err != nil {
		renderError(w, r, err)
		return
	}

	m, err := s.store.GetModel(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, m)
}

// @Summary Delete a model
// @Description Models still referenced by training data are kept.
// @Tags models
// @Security BearerAuth
// @Param id path int true "Model id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /models/{id} [delete]
func (s *server) deleteModelHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	if err := s.store.DeleteModel(r.Context(), user.ID, id); err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
