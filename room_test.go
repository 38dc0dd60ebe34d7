package gobang

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"
)

func newTestRoom(t *testing.T) Room {
	t.Helper()

	b, err := NewBoard(DefaultBoardSize)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return Room{
		ID:            1,
		Code:          "abc",
		Name:          "room",
		HostID:        1,
		GuestID:       int64p(2),
		Status:        RoomPlaying,
		BoardState:    datatypes.NewJSONType(b),
		BoardSize:     DefaultBoardSize,
		CurrentPlayer: PlayerBlack,
		MoveHistory:   datatypes.JSONSlice[Move]{},
	}
}

func TestRoomStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from RoomStatus
		step func(RoomStatus) (RoomStatus, error)
		want RoomStatus
		ok   bool
	}{
		{"join waiting", RoomWaiting, RoomStatus.Join, RoomPlaying, true},
		{"join playing", RoomPlaying, RoomStatus.Join, RoomPlaying, false},
		{"join ended", RoomEnded, RoomStatus.Join, RoomEnded, false},
		{"finish playing", RoomPlaying, RoomStatus.Finish, RoomEnded, true},
		{"finish waiting", RoomWaiting, RoomStatus.Finish, RoomWaiting, false},
		{"close waiting", RoomWaiting, RoomStatus.Close, RoomEnded, true},
		{"close playing", RoomPlaying, RoomStatus.Close, RoomEnded, true},
		{"close ended", RoomEnded, RoomStatus.Close, RoomEnded, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.step(tc.from)
			if (err == nil) != tc.ok {
				t.Errorf("err = %v, want ok %v", err, tc.ok)
			}
			if got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRoomStatusEncoding(t *testing.T) {
	for _, s := range []RoomStatus{RoomWaiting, RoomPlaying, RoomEnded} {
		v, err := s.Value()
		if err != nil {
			t.Fatalf("%+v", err)
		}

		var scanned RoomStatus
		if err := scanned.Scan([]byte(v.(string))); err != nil {
			t.Fatalf("%+v", err)
		}
		if scanned != s {
			t.Errorf("scanned %s, want %s", scanned, s)
		}

		b, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if string(b) != `"`+s.String()+`"` {
			t.Errorf("json %s", b)
		}
	}

	if _, err := RoomStatus(0).Value(); err == nil {
		t.Error("zero status should not be stored")
	}
	var s RoomStatus
	if err := s.Scan("lobby"); err == nil {
		t.Error("unknown status should not scan")
	}
}

func TestRoomAdvance(t *testing.T) {
	r := newTestRoom(t)
	now := time.Now()

	if err := r.Advance(Move{X: 7, Y: 7}, now); err != nil {
		t.Fatalf("%+v", err)
	}
	if r.CurrentPlayer != PlayerWhite || len(r.MoveHistory) != 1 {
		t.Fatalf("after one move: player %d, %d moves", r.CurrentPlayer, len(r.MoveHistory))
	}
	if m := r.MoveHistory[0]; m.UserID == nil || *m.UserID != 1 || m.Player != PlayerBlack {
		t.Errorf("first move %+v", m)
	}

	var se *StateError
	if err := r.Advance(Move{X: 0, Y: 0, Player: PlayerBlack}, now); !errors.As(err, &se) {
		t.Errorf("out of turn should be a StateError, got %v", err)
	}

	var ve *ValidationError
	if err := r.Advance(Move{X: 7, Y: 7}, now); !errors.As(err, &ve) {
		t.Errorf("occupied cell should be a ValidationError, got %v", err)
	}
	if err := r.Advance(Move{X: 16, Y: 0}, now); !errors.As(err, &ve) {
		t.Errorf("off-board move should be a ValidationError, got %v", err)
	}
	if len(r.MoveHistory) != 1 || r.BoardState.Data().Stones() != 1 {
		t.Error("failed moves changed the room")
	}

	if err := r.Advance(Move{X: 8, Y: 8}, now); err != nil {
		t.Fatalf("%+v", err)
	}
	if r.CurrentPlayer != PlayerBlack || *r.MoveHistory[1].UserID != 2 {
		t.Errorf("second move %+v, next player %d", r.MoveHistory[1], r.CurrentPlayer)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("%+v", err)
	}

	r.Status = RoomEnded
	if err := r.Advance(Move{X: 1, Y: 1}, now); !errors.As(err, &se) {
		t.Errorf("move in an ended room should be a StateError, got %v", err)
	}
}

func TestRoomAdvanceDecides(t *testing.T) {
	now := time.Now()

	t.Run("black five", func(t *testing.T) {
		r := newTestRoom(t)
		for i := 0; i < 5; i++ {
			if err := r.Advance(Move{X: i, Y: 0}, now); err != nil {
				t.Fatalf("%+v", err)
			}
			if _, done := r.Outcome(); done != (i == 4) {
				t.Fatalf("after black move %d decided = %v", i, done)
			}
			if i < 4 {
				if err := r.Advance(Move{X: i, Y: 1}, now); err != nil {
					t.Fatalf("%+v", err)
				}
			}
		}

		if result, _ := r.Outcome(); result != ResultWin {
			t.Errorf("result %q, want win", result)
		}
		if r.Status != RoomEnded {
			t.Errorf("status %s, want ended", r.Status)
		}
		var se *StateError
		if err := r.Advance(Move{X: 9, Y: 9}, now); !errors.As(err, &se) {
			t.Errorf("move after five should be a StateError, got %v", err)
		}
		if err := r.Validate(); err != nil {
			t.Errorf("%+v", err)
		}
	})

	t.Run("white five", func(t *testing.T) {
		r := newTestRoom(t)
		for i := 0; i < 5; i++ {
			if err := r.Advance(Move{X: i, Y: 5 + i%2*2}, now); err != nil {
				t.Fatalf("%+v", err)
			}
			if err := r.Advance(Move{X: 10, Y: i}, now); err != nil {
				t.Fatalf("%+v", err)
			}
		}

		if result, done := r.Outcome(); !done || result != ResultLose {
			t.Errorf("result %q decided %v, want lose", result, done)
		}
		if r.Status != RoomEnded {
			t.Errorf("status %s, want ended", r.Status)
		}
	})

	t.Run("full board", func(t *testing.T) {
		r := newTestRoom(t)
		b, err := NewBoard(MinBoardSize)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		r.BoardSize = MinBoardSize
		r.BoardState = datatypes.NewJSONType(b)

		var black, white []Move
		for x := 0; x < MinBoardSize; x++ {
			for y := 0; y < MinBoardSize; y++ {
				if (x/2+y)%2 == 0 {
					black = append(black, Move{X: x, Y: y})
				} else {
					white = append(white, Move{X: x, Y: y})
				}
			}
		}
		for i, m := range black {
			if err := r.Advance(m, now); err != nil {
				t.Fatalf("black %d: %+v", i, err)
			}
			if i < len(white) {
				if err := r.Advance(white[i], now); err != nil {
					t.Fatalf("white %d: %+v", i, err)
				}
			}
		}

		if result, done := r.Outcome(); !done || result != ResultDraw {
			t.Errorf("result %q decided %v, want draw", result, done)
		}
		if r.Status != RoomEnded {
			t.Errorf("status %s, want ended", r.Status)
		}
	})

	t.Run("undecided", func(t *testing.T) {
		r := newTestRoom(t)
		if _, done := r.Outcome(); done {
			t.Error("empty board is decided")
		}
	})
}

func TestRoomValidate(t *testing.T) {
	r := newTestRoom(t)
	r.Status = RoomWaiting
	if err := r.Validate(); err == nil {
		t.Error("a waiting room cannot have a guest")
	}

	r = newTestRoom(t)
	r.GuestID = nil
	if err := r.Validate(); err == nil {
		t.Error("a playing room needs a guest")
	}

	r = newTestRoom(t)
	r.GuestID = int64p(r.HostID)
	if err := r.Validate(); err == nil {
		t.Error("host cannot be the guest")
	}

	r = newTestRoom(t)
	r.MoveHistory = append(r.MoveHistory, Move{X: 1, Y: 1, Player: PlayerBlack})
	if err := r.Validate(); err == nil {
		t.Error("history without stones should fail")
	}
}
