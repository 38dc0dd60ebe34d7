package gobang

import (
	"fmt"
	"time"
)

// Move is a single stone placement as stored in a move history.
type Move struct {
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Player int       `json:"player"`
	UserID *int64    `json:"user_id,omitempty"`
	Time   time.Time `json:"time"`
}

// String returns the move in column-letter notation, e.g. "h8".
func (m Move) String() string {
	return fmt.Sprintf("%c%d", 'a'+rune(m.X), m.Y+1)
}

// Other returns the opponent of player.
func Other(player int) int {
	if player == PlayerBlack {
		return PlayerWhite
	}
	return PlayerBlack
}

// ValidPlayer reports whether p names a side.
func ValidPlayer(p int) bool {
	return p == PlayerBlack || p == PlayerWhite
}

// Validate checks the move descriptor on its own. Bounds are checked against
// a concrete board when the move is applied.
func (m Move) Validate() error {
	v := newValidator("move")
	v.check(m.X >= 0, "x", "must be >= 0")
	v.check(m.Y >= 0, "y", "must be >= 0")
	v.check(m.X < MaxBoardSize, "x", "must be < %d", MaxBoardSize)
	v.check(m.Y < MaxBoardSize, "y", "must be < %d", MaxBoardSize)
	v.check(m.Player == 0 || ValidPlayer(m.Player), "player", "must be 1 or 2")
	return v.result()
}
