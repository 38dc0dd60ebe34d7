package gobang

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// RoomStatus is the lifecycle state of an online room. It only moves forward:
// waiting -> playing -> ended, or straight to ended when a room is closed.
type RoomStatus uint8

// Room states. The zero value is not a valid state.
const (
	RoomWaiting RoomStatus = iota + 1
	RoomPlaying
	RoomEnded
)

var roomStatusNames = map[RoomStatus]string{
	RoomWaiting: "waiting",
	RoomPlaying: "playing",
	RoomEnded:   "ended",
}

func (s RoomStatus) String() string {
	if n, ok := roomStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("RoomStatus(%d)", uint8(s))
}

// Valid reports whether s is a known state.
func (s RoomStatus) Valid() bool {
	_, ok := roomStatusNames[s]
	return ok
}

// ParseRoomStatus turns a stored name back into a state.
func ParseRoomStatus(name string) (RoomStatus, error) {
	for s, n := range roomStatusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown room status %q", name)
}

// Join is the transition taken when a guest sits down.
func (s RoomStatus) Join() (RoomStatus, error) {
	if s != RoomWaiting {
		return s, fmt.Errorf("cannot join a room that is %s", s)
	}
	return RoomPlaying, nil
}

// Finish is the transition taken when a match completes.
func (s RoomStatus) Finish() (RoomStatus, error) {
	if s != RoomPlaying {
		return s, fmt.Errorf("cannot finish a room that is %s", s)
	}
	return RoomEnded, nil
}

// Close ends a room from any live state.
func (s RoomStatus) Close() (RoomStatus, error) {
	if s == RoomEnded || !s.Valid() {
		return s, fmt.Errorf("cannot close a room that is %s", s)
	}
	return RoomEnded, nil
}

// Value stores the state by name.
func (s RoomStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid room status %d", uint8(s))
	}
	return s.String(), nil
}

// Scan reads a stored name.
func (s *RoomStatus) Scan(value interface{}) error {
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return fmt.Errorf("cannot scan %T into RoomStatus", value)
	}

	parsed, err := ParseRoomStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalJSON encodes the state by name.
func (s RoomStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name.
func (s *RoomStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseRoomStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Room is a rendezvous for two remote players. The host plays black and
// moves first.
type Room struct {
	ID            int64                     `gorm:"primaryKey;autoIncrement;column:room_id" json:"id"`
	Code          string                    `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"`
	Name          string                    `gorm:"column:room_name;type:varchar(100);not null" json:"name"`
	HostID        int64                     `gorm:"not null;index" json:"host_id"`
	GuestID       *int64                    `gorm:"index" json:"guest_id,omitempty"`
	Status        RoomStatus                `gorm:"column:room_status;type:varchar(10);not null;index" json:"status"`
	BoardState    datatypes.JSONType[Board] `gorm:"not null" json:"board_state"`
	BoardSize     int                       `gorm:"not null;default:15" json:"board_size"`
	CurrentPlayer int                       `gorm:"not null;default:1" json:"current_player"`
	MoveHistory   datatypes.JSONSlice[Move] `gorm:"not null" json:"move_history"`
	GameID        *int64                    `json:"game_id,omitempty"`
	CreateTime    time.Time                 `gorm:"autoCreateTime" json:"create_time"`
	UpdateTime    time.Time                 `gorm:"index" json:"update_time"`
	Version       int64                     `gorm:"not null;default:1" json:"-"`

	Host  *User `gorm:"foreignKey:HostID;constraint:OnDelete:RESTRICT" json:"-"`
	Guest *User `gorm:"foreignKey:GuestID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName pins the table name.
func (Room) TableName() string { return "online_rooms" }

// Validate checks every column constraint and the cross-column rules.
func (r *Room) Validate() error {
	v := newValidator("room")
	v.required("code", r.Code, 32)
	v.required("room_name", r.Name, 100)
	v.check(r.HostID > 0, "host_id", "must be set")
	v.check(r.Status.Valid(), "room_status", "must be waiting, playing or ended")
	v.check(ValidPlayer(r.CurrentPlayer), "current_player", "must be 1 or 2, got %d", r.CurrentPlayer)
	v.check(r.BoardSize >= MinBoardSize && r.BoardSize <= MaxBoardSize, "board_size", "must be within %d..%d", MinBoardSize, MaxBoardSize)

	if r.GuestID != nil {
		v.check(*r.GuestID != r.HostID, "guest_id", "must differ from host_id")
		v.check(r.Status != RoomWaiting, "guest_id", "must be empty while waiting")
	} else {
		v.check(r.Status != RoomPlaying, "guest_id", "must be set while playing")
	}

	b := r.BoardState.Data()
	v.check(b.Size == r.BoardSize && len(b.Cells) == r.BoardSize, "board_state", "must be a %dx%d board", r.BoardSize, r.BoardSize)
	v.check(b.Stones() == len(r.MoveHistory), "move_history", "must have one entry per stone on the board")
	return v.result()
}

// Advance applies a move for the side to play: the stone is placed, the move
// appended and the turn passed. A move that completes five in a row or fills
// the board ends the room. The room is only changed on success.
func (r *Room) Advance(m Move, now time.Time) error {
	if r.Status != RoomPlaying {
		return &StateError{Entity: "room", ID: r.ID, Reason: fmt.Sprintf("room is %s, not playing", r.Status)}
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if m.Player == 0 {
		m.Player = r.CurrentPlayer
	}
	if m.Player != r.CurrentPlayer {
		return &StateError{Entity: "room", ID: r.ID, Reason: fmt.Sprintf("it is player %d's turn", r.CurrentPlayer)}
	}

	board := r.BoardState.Data().Clone()
	if err := board.Place(m.X, m.Y, m.Player); err != nil {
		return Invalid("move", "position", "%v", err)
	}

	if m.UserID == nil {
		m.UserID = r.Seat(m.Player)
	}
	if m.Time.IsZero() {
		m.Time = now
	}

	r.BoardState = datatypes.NewJSONType(board)
	r.MoveHistory = append(r.MoveHistory, m)
	r.CurrentPlayer = Other(r.CurrentPlayer)
	r.UpdateTime = now

	if _, done := r.Outcome(); done {
		r.Status = RoomEnded
	}
	return nil
}

// Outcome reports the result the board has decided, seen from the host's
// side: a five in a row by the last mover wins, a full board is a draw.
func (r *Room) Outcome() (GameResult, bool) {
	if len(r.MoveHistory) == 0 {
		return "", false
	}

	last := r.MoveHistory[len(r.MoveHistory)-1]
	board := r.BoardState.Data()
	if board.FiveFrom(last.X, last.Y) {
		if board.At(last.X, last.Y) == PlayerBlack {
			return ResultWin, true
		}
		return ResultLose, true
	}
	if board.Full() {
		return ResultDraw, true
	}
	return "", false
}

// Seat returns the user id playing the given side.
func (r *Room) Seat(player int) *int64 {
	switch player {
	case PlayerBlack:
		id := r.HostID
		return &id
	case PlayerWhite:
		return r.GuestID
	}
	return nil
}

// NewRoom is the input for opening a room.
type NewRoom struct {
	HostID    int64  `json:"host_id"`
	Name      string `json:"name"`
	BoardSize int    `json:"board_size"`
}

// RoomPatch changes a live room. Nil fields are left alone.
type RoomPatch struct {
	Name *string `json:"name,omitempty"`
}

// RoomFilter selects rooms for listing.
type RoomFilter struct {
	Status RoomStatus
	HostID int64
	Limit  int
}
