package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/icco/gobang"
	"github.com/icco/gobang/auth"
	"github.com/icco/gobang/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gobang.db")
	st, err := store.Open(path, store.Config{}, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer st.Close()

	_, err = st.CreateUser(context.Background(), gobang.NewUser{Username: "alice", Password: "password-alice"})
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	out = buf
	return path, buf
}

func TestSeedAndLeaderboard(t *testing.T) {
	path, buf := setupTestDB(t)

	require.NoError(t, run([]string{"--database-url", path, "-q", "migrate"}))
	assert.Contains(t, buf.String(), "up to date")

	buf.Reset()
	require.NoError(t, run([]string{"--database-url", path, "-q", "seed", "--owner", "alice", "--dir", "/models"}))
	assert.Equal(t, "seeded 4 models for alice\n", buf.String())

	buf.Reset()
	require.NoError(t, run([]string{"--database-url", path, "-q", "seed", "--owner", "alice"}))
	assert.Equal(t, "seeded 0 models for alice\n", buf.String())

	assert.Error(t, run([]string{"--database-url", path, "-q", "seed", "--owner", "nobody"}))

	buf.Reset()
	require.NoError(t, run([]string{"--database-url", path, "-q", "leaderboard"}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "alice")

	buf.Reset()
	require.NoError(t, run([]string{"--database-url", path, "-q", "clean-rooms", "--idle", "1m"}))
	assert.Equal(t, "closed 0 rooms\n", buf.String())
}

func TestToken(t *testing.T) {
	path, buf := setupTestDB(t)

	args := []string{"--database-url", path, "-q", "token", "--username", "alice", "--jwt-secret", "s3cret"}
	require.NoError(t, run(append(args, "--password", "password-alice")))

	id, err := auth.Verify([]byte("s3cret"), strings.TrimSpace(buf.String()))
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	err = run(append(args, "--password", "wrong-password"))
	var nf *gobang.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUnknownCommand(t *testing.T) {
	assert.Error(t, run([]string{"bogus"}))
	assert.Error(t, run(nil), "a command is required")
}
