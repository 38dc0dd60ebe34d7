package main

import (
	"net/http"

	"github.com/icco/gobang"
)

// @Summary Add a training sample
// @Tags training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sample body gobang.TrainingData true "Sample"
// @Success 201 {object} gobang.TrainingData
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /training [post]
func (s *server) createTrainingHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	var d gobang.TrainingData
	if err := decode(w, r, &d); err != nil {
		renderError(w, r, err)
		return
	}
	d.UserID = user.ID

	if err := s.store.CreateTrainingData(r.Context(), &d); err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, d)
}

// @Summary List the caller's training samples
// @Tags training
// @Produce json
// @Security BearerAuth
// @Param model_id query int false "Only samples for this model"
// @Param limit query int false "Maximum rows"
// @Success 200 {array} gobang.TrainingData
// @Router /training [get]
func (s *server) listTrainingHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	limit, err := queryInt(r, "limit")
	if err != nil {
		renderError(w, r, err)
		return
	}
	modelID, err := queryInt(r, "model_id")
	if err != nil {
		renderError(w, r, err)
		return
	}

	f := gobang.TrainingFilter{UserID: user.ID, Limit: int(limit)}
	if modelID > 0 {
		f.ModelID = &modelID
	}

	rows, err := s.store.ListTrainingData(r.Context(), f)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, rows)
}

// @Summary Get a training sample
// @Tags training
// @Produce json
// @Security BearerAuth
// @Param id path int true "Sample id"
// @Success 200 {object} gobang.TrainingData
// @Failure 404 {object} ErrorResponse
// @Router /training/{id} [get]
func (s *server) getTrainingHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	d, err := s.store.GetTrainingData(r.Context(), id)
	if err == nil && d.UserID != user.ID {
		err = gobang.NotFound("training_data", id)
	}
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, d)
}

// @Summary Update a training sample
// @Description Samples are immutable; this always fails.
// @Tags training
// @Security BearerAuth
// @Param id path int true "Sample id"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /training/{id} [patch]
func (s *server) updateTrainingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderError(w, r, s.store.UpdateTrainingData(r.Context(), id))
}

// @Summary Delete all of the caller's training samples
// @Tags training
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CountResponse
// @Router /training [delete]
func (s *server) clearTrainingHandler(w http.ResponseWriter, r *http.Request) {
	user := getMustUserFromContext(r)

	n, err := s.store.ClearTrainingData(r.Context(), user.ID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, CountResponse{Count: n})
}
