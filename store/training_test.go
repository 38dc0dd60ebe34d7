package store

import (
	"context"
	"errors"
	"testing"

	"github.com/icco/gobang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingData(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	m := newTestModel(alice.ID, "m1", true)
	require.NoError(t, s.CreateModel(ctx, m))

	d := &gobang.TrainingData{UserID: alice.ID, ModelID: &m.ID, InputData: "[[0,1],[2,0]]", OutputData: "7,7", Score: 0.25}
	require.NoError(t, s.CreateTrainingData(ctx, d))
	require.NoError(t, s.CreateTrainingData(ctx, &gobang.TrainingData{UserID: alice.ID, InputData: "[]", OutputData: "0,0"}))

	got, err := s.GetTrainingData(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.InputData, got.InputData)

	var se *gobang.StateError
	assert.True(t, errors.As(s.UpdateTrainingData(ctx, d.ID), &se), "rows are immutable")
	var nf *gobang.NotFoundError
	assert.True(t, errors.As(s.UpdateTrainingData(ctx, 999), &nf))

	rows, err := s.ListTrainingData(ctx, gobang.TrainingFilter{UserID: alice.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, d.ID, rows[0].ID)

	rows, err = s.ListTrainingData(ctx, gobang.TrainingFilter{ModelID: &m.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	var fk *gobang.ForeignKeyError
	err = s.CreateTrainingData(ctx, &gobang.TrainingData{UserID: bob.ID, ModelID: &m.ID, InputData: "[]", OutputData: "1,1"})
	assert.True(t, errors.As(err, &fk), "model of another user: %v", err)

	n, err := s.ClearTrainingData(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err = s.ListTrainingData(ctx, gobang.TrainingFilter{UserID: alice.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreateTrainingDataMissingUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var fk *gobang.ForeignKeyError
	err := s.CreateTrainingData(ctx, &gobang.TrainingData{UserID: 5, InputData: "[]", OutputData: "0,0"})
	require.True(t, errors.As(err, &fk), "got %v", err)

	rows, err := s.ListTrainingData(ctx, gobang.TrainingFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	var ve *gobang.ValidationError
	err = s.CreateTrainingData(ctx, &gobang.TrainingData{UserID: 5})
	assert.True(t, errors.As(err, &ve))
}
