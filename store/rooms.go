package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/icco/gobang"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateRoom opens a waiting room hosted by in.HostID. The host plays black.
func (s *Store) CreateRoom(ctx context.Context, in gobang.NewRoom) (r *gobang.Room, err error) {
	defer s.observe("create_room", time.Now(), &err)

	size := in.BoardSize
	if size == 0 {
		size = s.cfg.BoardSize
	}
	board, err := gobang.NewBoard(size)
	if err != nil {
		return nil, gobang.Invalid("room", "board_size", "%v", err)
	}

	now := s.now()
	room := &gobang.Room{
		Code:          s.codes.IDString(s.codes.NextID()),
		Name:          strings.TrimSpace(in.Name),
		HostID:        in.HostID,
		Status:        gobang.RoomWaiting,
		BoardState:    datatypes.NewJSONType(board),
		BoardSize:     size,
		CurrentPlayer: gobang.PlayerBlack,
		MoveHistory:   datatypes.JSONSlice[gobang.Move]{},
		UpdateTime:    now,
		Version:       1,
	}

	err = s.tx(ctx, func(tx *gorm.DB) error {
		var host gobang.User
		if err := tx.First(&host, "id = ?", in.HostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &gobang.ForeignKeyError{Table: "users", Column: "host_id", ID: in.HostID}
			}
			return fmt.Errorf("check host %d: %w", in.HostID, err)
		}
		if room.Name == "" {
			room.Name = fmt.Sprintf("%s's room", host.Nickname)
		}
		if err := room.Validate(); err != nil {
			return err
		}
		return writeErr(tx.Create(room).Error, "room", "code")
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("room created", "room_id", room.ID, "code", room.Code, "host_id", room.HostID)
	return room, nil
}

// GetRoom loads a room by id.
func (s *Store) GetRoom(ctx context.Context, id int64) (*gobang.Room, error) {
	var r gobang.Room
	if err := s.db.WithContext(ctx).First(&r, "room_id = ?", id).Error; err != nil {
		return nil, notFound(err, "room", id)
	}
	return &r, nil
}

// GetRoomByCode loads a room by its public code.
func (s *Store) GetRoomByCode(ctx context.Context, code string) (*gobang.Room, error) {
	var r gobang.Room
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &gobang.NotFoundError{Entity: "room", Key: code}
	}
	if err != nil {
		return nil, fmt.Errorf("find room %q: %w", code, err)
	}
	return &r, nil
}

// ListRooms lists rooms, most recently active first.
func (s *Store) ListRooms(ctx context.Context, f gobang.RoomFilter) ([]gobang.Room, error) {
	q := s.db.WithContext(ctx).Model(&gobang.Room{})
	if f.Status != 0 {
		q = q.Where("room_status = ?", f.Status)
	}
	if f.HostID > 0 {
		q = q.Where("host_id = ?", f.HostID)
	}

	var rooms []gobang.Room
	if err := limit(q.Order("update_time DESC").Order("room_id DESC"), f.Limit).Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// UpdateRoom applies p to a room that has not ended.
func (s *Store) UpdateRoom(ctx context.Context, id int64, p gobang.RoomPatch) (*gobang.Room, error) {
	return s.changeRoom(ctx, "update_room", id, func(tx *gorm.DB, r *gobang.Room) error {
		if r.Status == gobang.RoomEnded {
			return &gobang.StateError{Entity: "room", ID: id, Reason: "room has ended"}
		}
		if p.Name != nil {
			r.Name = strings.TrimSpace(*p.Name)
		}
		return nil
	})
}

// JoinRoom seats guestID as white and starts the match. Only a waiting room
// without a guest can be joined, and never by its host. Of two concurrent
// joins exactly one wins; the other gets a StateError.
func (s *Store) JoinRoom(ctx context.Context, roomID, guestID int64) (*gobang.Room, error) {
	return s.changeRoom(ctx, "join_room", roomID, func(tx *gorm.DB, r *gobang.Room) error {
		if r.GuestID != nil {
			return &gobang.StateError{Entity: "room", ID: roomID, Reason: "room already has a guest"}
		}
		next, err := r.Status.Join()
		if err != nil {
			return &gobang.StateError{Entity: "room", ID: roomID, Reason: err.Error()}
		}
		if guestID == r.HostID {
			return &gobang.StateError{Entity: "room", ID: roomID, Reason: "host cannot join their own room"}
		}

		if err := requireUser(tx, guestID, "guest_id"); err != nil {
			return err
		}

		r.GuestID = &guestID
		r.Status = next
		return nil
	})
}

// AdvanceRoom plays m in a running match. When the move decides the game the
// room ends and the online game is recorded in the same transaction.
func (s *Store) AdvanceRoom(ctx context.Context, roomID int64, m gobang.Move) (*gobang.Room, error) {
	var result gobang.GameResult
	room, err := s.changeRoom(ctx, "advance_room", roomID, func(tx *gorm.DB, r *gobang.Room) error {
		if err := r.Advance(m, s.now()); err != nil {
			return err
		}

		var done bool
		if result, done = r.Outcome(); done {
			return s.recordRoomGame(tx, r, result)
		}
		return nil
	})
	if err == nil && room.GameID != nil {
		s.log.Infow("room decided on the board", "room_id", roomID, "game_id", *room.GameID, "result", result)
	}
	return room, err
}

// CloseRoom ends a waiting or playing room without recording a game.
func (s *Store) CloseRoom(ctx context.Context, roomID int64) (*gobang.Room, error) {
	return s.changeRoom(ctx, "close_room", roomID, func(tx *gorm.DB, r *gobang.Room) error {
		next, err := r.Status.Close()
		if err != nil {
			return &gobang.StateError{Entity: "room", ID: roomID, Reason: err.Error()}
		}
		r.Status = next
		return nil
	})
}

// FinishRoom ends a running match with result, seen from the host's side, for
// a resignation or an agreed draw. A result the board contradicts is
// rejected. The online game record is written and finalized, counters
// included, in the same transaction that ends the room.
func (s *Store) FinishRoom(ctx context.Context, roomID int64, result gobang.GameResult) (*gobang.Room, error) {
	if !result.Valid() {
		return nil, gobang.Invalid("game", "result", "must be one of win, lose, draw, got %q", result)
	}

	room, err := s.changeRoom(ctx, "finish_room", roomID, func(tx *gorm.DB, r *gobang.Room) error {
		next, err := r.Status.Finish()
		if err != nil {
			return &gobang.StateError{Entity: "room", ID: roomID, Reason: err.Error()}
		}
		if decided, ok := r.Outcome(); ok && decided != result {
			return gobang.Invalid("game", "result", "board already decided %q", decided)
		}

		r.Status = next
		return s.recordRoomGame(tx, r, result)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("room finished", "room_id", roomID, "game_id", *room.GameID, "result", result)
	return room, nil
}

// recordRoomGame writes the finalized online game for an ending room and
// links it.
func (s *Store) recordRoomGame(tx *gorm.DB, r *gobang.Room, result gobang.GameResult) error {
	game := gobang.Game{
		User1ID:     r.HostID,
		User2ID:     r.GuestID,
		Mode:        gobang.ModeOnline,
		MoveHistory: append(datatypes.JSONSlice[gobang.Move]{}, r.MoveHistory...),
		StartTime:   r.CreateTime,
	}
	if err := s.createGame(tx, &game); err != nil {
		return err
	}
	if err := s.finalize(tx, &game, result, nil); err != nil {
		return err
	}

	r.GameID = &game.ID
	return nil
}

// CleanStaleRooms closes waiting rooms nobody has touched for idle and
// returns how many were closed.
func (s *Store) CleanStaleRooms(ctx context.Context, idle time.Duration) (n int64, err error) {
	defer s.observe("clean_stale_rooms", time.Now(), &err)

	now := s.now()
	res := s.db.WithContext(ctx).Model(&gobang.Room{}).
		Where("room_status = ? AND update_time < ?", gobang.RoomWaiting, now.Add(-idle)).
		Updates(map[string]interface{}{
			"room_status": gobang.RoomEnded,
			"update_time": now,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("clean stale rooms: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		s.log.Infow("stale rooms closed", "rooms", res.RowsAffected, "idle", idle)
	}
	return res.RowsAffected, nil
}

// changeRoom runs one state change on a room: read, mutate, validate and
// compare-and-swap, retried on a lost race.
func (s *Store) changeRoom(ctx context.Context, op string, id int64, mutate func(tx *gorm.DB, r *gobang.Room) error) (room *gobang.Room, err error) {
	defer s.observe(op, time.Now(), &err)

	var r gobang.Room
	err = s.retry(ctx, op, "room", id, func(tx *gorm.DB) error {
		r = gobang.Room{}
		if err := forUpdate(tx).First(&r, "room_id = ?", id).Error; err != nil {
			return notFound(err, "room", id)
		}
		if err := mutate(tx, &r); err != nil {
			return err
		}
		if err := r.Validate(); err != nil {
			return err
		}

		r.UpdateTime = s.now()
		err := swap(tx, &gobang.Room{}, "room_id", id, r.Version, map[string]interface{}{
			"room_name":      r.Name,
			"guest_id":       r.GuestID,
			"room_status":    r.Status,
			"board_state":    r.BoardState,
			"current_player": r.CurrentPlayer,
			"move_history":   r.MoveHistory,
			"game_id":        r.GameID,
			"update_time":    r.UpdateTime,
		})
		if err != nil {
			return err
		}
		r.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}
