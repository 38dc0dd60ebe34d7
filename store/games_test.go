package store

import (
	"context"
	"errors"
	"testing"

	"github.com/icco/gobang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func createTestGame(t *testing.T, s *Store, user1 int64, user2 *int64) *gobang.Game {
	t.Helper()

	g := &gobang.Game{User1ID: user1, User2ID: user2, Mode: gobang.ModePVP}
	if user2 == nil {
		level := gobang.LevelHard
		g.Mode = gobang.ModePVE
		g.AILevel = &level
	}
	require.NoError(t, s.CreateGame(context.Background(), g))
	return g
}

func TestCreateGame(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")

	g := createTestGame(t, s, alice.ID, nil)
	assert.NotZero(t, g.ID)
	assert.False(t, g.StartTime.IsZero(), "start time defaults to now")

	got, err := s.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, gobang.ModePVE, got.Mode)
	assert.Empty(t, got.MoveHistory)
	assert.False(t, got.Finalized())

	var nf *gobang.NotFoundError
	_, err = s.GetGame(ctx, 999)
	assert.True(t, errors.As(err, &nf))

	var ve *gobang.ValidationError
	win := gobang.ResultWin
	err = s.CreateGame(ctx, &gobang.Game{User1ID: alice.ID, Mode: gobang.ModePVE, Result: &win})
	assert.True(t, errors.As(err, &ve), "results go through RecordGameResult: %v", err)
}

func TestCreateGameMissingUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")

	var fk *gobang.ForeignKeyError
	err := s.CreateGame(ctx, &gobang.Game{User1ID: 77, Mode: gobang.ModePVE})
	require.True(t, errors.As(err, &fk), "got %v", err)
	assert.Equal(t, "user1_id", fk.Column)

	ghost := int64(78)
	err = s.CreateGame(ctx, &gobang.Game{User1ID: alice.ID, User2ID: &ghost, Mode: gobang.ModePVP})
	require.True(t, errors.As(err, &fk), "got %v", err)
	assert.Equal(t, "user2_id", fk.Column)

	games, err := s.ListGames(ctx, gobang.GameFilter{})
	require.NoError(t, err)
	assert.Empty(t, games, "nothing persisted")
}

func TestAppendGameMove(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")
	g := createTestGame(t, s, alice.ID, nil)

	_, err := s.AppendGameMove(ctx, g.ID, gobang.Move{X: 7, Y: 7})
	require.NoError(t, err)
	got, err := s.AppendGameMove(ctx, g.ID, gobang.Move{X: 8, Y: 8})
	require.NoError(t, err)
	require.Len(t, got.MoveHistory, 2)
	assert.Equal(t, gobang.PlayerWhite, got.MoveHistory[1].Player)

	stored, err := s.GetGame(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, stored.MoveHistory, 2)
	assert.Equal(t, "h8", stored.MoveHistory[0].String())
	assert.Equal(t, "i9", stored.MoveHistory[1].String())
	assert.Equal(t, got.Version, stored.Version)

	var se *gobang.StateError
	_, err = s.AppendGameMove(ctx, g.ID, gobang.Move{X: 1, Y: 1, Player: gobang.PlayerWhite})
	assert.True(t, errors.As(err, &se), "out of turn: %v", err)
}

func TestUpdateGame(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")
	g := createTestGame(t, s, alice.ID, nil)

	expert := gobang.LevelExpert
	report := datatypes.JSON(`{"blunders":2}`)
	got, err := s.UpdateGame(ctx, g.ID, gobang.GamePatch{AILevel: &expert, AnalysisReport: report})
	require.NoError(t, err)
	assert.Equal(t, expert, *got.AILevel)

	stored, err := s.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(report), string(stored.AnalysisReport))

	_, err = s.RecordGameResult(ctx, g.ID, gobang.ResultLose, nil)
	require.NoError(t, err)

	var se *gobang.StateError
	_, err = s.UpdateGame(ctx, g.ID, gobang.GamePatch{AILevel: &expert})
	assert.True(t, errors.As(err, &se))
	_, err = s.AppendGameMove(ctx, g.ID, gobang.Move{X: 0, Y: 0})
	assert.True(t, errors.As(err, &se))
}

func TestRecordGameResultOnce(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	g := createTestGame(t, s, alice.ID, &bob.ID)

	got, err := s.RecordGameResult(ctx, g.ID, gobang.ResultWin, &alice.ID)
	require.NoError(t, err)
	assert.True(t, got.Finalized())
	assert.Equal(t, alice.ID, *got.WinnerID)

	var se *gobang.StateError
	_, err = s.RecordGameResult(ctx, g.ID, gobang.ResultLose, nil)
	assert.True(t, errors.As(err, &se), "second finalize: %v", err)

	a, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	b, err := s.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.WinCount)
	assert.Equal(t, int64(1), a.Games())
	assert.Equal(t, int64(1), b.LoseCount)
	assert.Equal(t, int64(1), b.Games())
}

func TestRecordGameResultRejectsWrongWinner(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	g := createTestGame(t, s, alice.ID, &bob.ID)

	var ve *gobang.ValidationError
	_, err := s.RecordGameResult(ctx, g.ID, gobang.ResultDraw, &bob.ID)
	assert.True(t, errors.As(err, &ve), "got %v", err)

	var nf *gobang.NotFoundError
	_, err = s.RecordGameResult(ctx, 999, gobang.ResultDraw, nil)
	assert.True(t, errors.As(err, &nf))

	stored, err := s.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, stored.Finalized())
	a, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, a.Games())
}

func TestCountersMatchFinalizedGames(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")
	carol := createTestUser(t, s, "carol")

	plays := []struct {
		user1  int64
		user2  *int64
		result gobang.GameResult
	}{
		{alice.ID, &bob.ID, gobang.ResultWin},
		{bob.ID, &alice.ID, gobang.ResultDraw},
		{alice.ID, nil, gobang.ResultLose},
		{carol.ID, &alice.ID, gobang.ResultLose},
		{bob.ID, &carol.ID, gobang.ResultWin},
		{carol.ID, nil, gobang.ResultDraw},
	}
	for _, p := range plays {
		g := createTestGame(t, s, p.user1, p.user2)
		_, err := s.RecordGameResult(ctx, g.ID, p.result, nil)
		require.NoError(t, err)
	}
	createTestGame(t, s, alice.ID, &carol.ID)

	for _, u := range []*gobang.User{alice, bob, carol} {
		got, err := s.GetUser(ctx, u.ID)
		require.NoError(t, err)

		games, err := s.ListGames(ctx, gobang.GameFilter{UserID: u.ID, FinishedOnly: true})
		require.NoError(t, err)
		assert.Equal(t, int64(len(games)), got.Games(), "counters of %s", u.Username)
	}

	a, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.WinCount)
	assert.Equal(t, int64(1), a.LoseCount)
	assert.Equal(t, int64(1), a.DrawCount)

	all, err := s.ListGames(ctx, gobang.GameFilter{UserID: alice.ID})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	pve, err := s.ListGames(ctx, gobang.GameFilter{Mode: gobang.ModePVE, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, pve, 1)
}
