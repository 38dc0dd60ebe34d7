package store

import (
	"context"
	"fmt"
	"time"

	"github.com/icco/gobang"
	"gorm.io/gorm"
)

// CreateGame records the start of a game. Results are recorded separately
// through RecordGameResult so counters stay in step.
func (s *Store) CreateGame(ctx context.Context, g *gobang.Game) (err error) {
	defer s.observe("create_game", time.Now(), &err)

	if g.Result != nil || g.EndTime != nil || g.WinnerID != nil {
		return gobang.Invalid("game", "result", "must be empty when a game is created")
	}

	return s.tx(ctx, func(tx *gorm.DB) error {
		return s.createGame(tx, g)
	})
}

func (s *Store) createGame(tx *gorm.DB, g *gobang.Game) error {
	g.ID = 0
	g.Version = 1
	if g.StartTime.IsZero() {
		g.StartTime = s.now()
	}
	g.Normalize()
	if err := g.Validate(); err != nil {
		return err
	}

	if err := requireUsers(tx, map[string]*int64{"user1_id": &g.User1ID, "user2_id": g.User2ID}); err != nil {
		return err
	}
	return writeErr(tx.Create(g).Error, "game", "id")
}

// GetGame loads a game by id.
func (s *Store) GetGame(ctx context.Context, id int64) (*gobang.Game, error) {
	var g gobang.Game
	if err := s.db.WithContext(ctx).First(&g, "game_id = ?", id).Error; err != nil {
		return nil, notFound(err, "game", id)
	}
	return &g, nil
}

// UpdateGame applies p to a game still in progress.
func (s *Store) UpdateGame(ctx context.Context, id int64, p gobang.GamePatch) (g *gobang.Game, err error) {
	defer s.observe("update_game", time.Now(), &err)

	var game gobang.Game
	err = s.retry(ctx, "update_game", "game", id, func(tx *gorm.DB) error {
		game = gobang.Game{}
		if err := forUpdate(tx).First(&game, "game_id = ?", id).Error; err != nil {
			return notFound(err, "game", id)
		}
		if game.Finalized() {
			return &gobang.StateError{Entity: "game", ID: id, Reason: "game is finalized"}
		}

		p.Apply(&game)
		game.Normalize()
		if err := game.Validate(); err != nil {
			return err
		}

		err := swap(tx, &gobang.Game{}, "game_id", id, game.Version, map[string]interface{}{
			"ai_level":        game.AILevel,
			"analysis_report": game.AnalysisReport,
		})
		if err != nil {
			return err
		}
		game.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// AppendGameMove adds one move to an unfinished game's history.
func (s *Store) AppendGameMove(ctx context.Context, id int64, m gobang.Move) (g *gobang.Game, err error) {
	defer s.observe("append_game_move", time.Now(), &err)

	var game gobang.Game
	err = s.retry(ctx, "append_game_move", "game", id, func(tx *gorm.DB) error {
		game = gobang.Game{}
		if err := forUpdate(tx).First(&game, "game_id = ?", id).Error; err != nil {
			return notFound(err, "game", id)
		}
		if err := game.AppendMove(m, s.now()); err != nil {
			return err
		}

		err := swap(tx, &gobang.Game{}, "game_id", id, game.Version, map[string]interface{}{
			"move_history": game.MoveHistory,
		})
		if err != nil {
			return err
		}
		game.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// ListGames lists games, most recent first.
func (s *Store) ListGames(ctx context.Context, f gobang.GameFilter) ([]gobang.Game, error) {
	q := s.db.WithContext(ctx).Model(&gobang.Game{})
	if f.UserID > 0 {
		q = q.Where("user1_id = ? OR user2_id = ?", f.UserID, f.UserID)
	}
	if f.Mode != "" {
		q = q.Where("game_mode = ?", f.Mode)
	}
	if f.FinishedOnly {
		q = q.Where("end_time IS NOT NULL")
	}

	var games []gobang.Game
	if err := limit(q.Order("start_time DESC").Order("game_id DESC"), f.Limit).Find(&games).Error; err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// RecordGameResult finalizes a game: end time, result and winner are set and
// the players' win/lose/draw counters move, all in one transaction. A game
// can only be finalized once; later calls fail with a StateError and leave
// every counter alone.
func (s *Store) RecordGameResult(ctx context.Context, id int64, result gobang.GameResult, winnerID *int64) (g *gobang.Game, err error) {
	defer s.observe("record_game_result", time.Now(), &err)

	var game gobang.Game
	err = s.retry(ctx, "record_game_result", "game", id, func(tx *gorm.DB) error {
		game = gobang.Game{}
		if err := forUpdate(tx).First(&game, "game_id = ?", id).Error; err != nil {
			return notFound(err, "game", id)
		}
		return s.finalize(tx, &game, result, winnerID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("game finalized", "game_id", id, "result", result, "winner_id", game.WinnerID)
	return &game, nil
}

// finalize writes the result of a loaded game and bumps the counters. The
// compare-and-swap on version makes a concurrent second finalization rerun
// and then see the game as finalized.
func (s *Store) finalize(tx *gorm.DB, game *gobang.Game, result gobang.GameResult, winnerID *int64) error {
	if err := game.Finalize(result, winnerID, s.now()); err != nil {
		return err
	}
	if err := game.Validate(); err != nil {
		return err
	}

	err := swap(tx, &gobang.Game{}, "game_id", game.ID, game.Version, map[string]interface{}{
		"result":    game.Result,
		"winner_id": game.WinnerID,
		"end_time":  game.EndTime,
	})
	if err != nil {
		return err
	}
	game.Version++

	if err := bumpCounter(tx, game.User1ID, result); err != nil {
		return err
	}
	if game.User2ID != nil {
		return bumpCounter(tx, *game.User2ID, result.Invert())
	}
	return nil
}

var counterColumns = map[gobang.GameResult]string{
	gobang.ResultWin:  "win_count",
	gobang.ResultLose: "lose_count",
	gobang.ResultDraw: "draw_count",
}

// bumpCounter adds one to the user's counter for result.
func bumpCounter(tx *gorm.DB, userID int64, result gobang.GameResult) error {
	col, ok := counterColumns[result]
	if !ok {
		return gobang.Invalid("game", "result", "unknown result %q", result)
	}

	res := tx.Model(&gobang.User{}).Where("id = ?", userID).UpdateColumn(col, gorm.Expr(col+" + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("bump %s of user %d: %w", col, userID, res.Error)
	}
	if res.RowsAffected != 1 {
		return &gobang.ForeignKeyError{Table: "users", Column: "games.user_id", ID: userID}
	}
	return nil
}
