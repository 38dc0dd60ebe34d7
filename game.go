package gobang

import (
	"time"

	"gorm.io/datatypes"
)

// GameMode is how a game was played.
type GameMode string

// Game modes.
const (
	ModePVP    GameMode = "pvp"
	ModePVE    GameMode = "pve"
	ModeOnline GameMode = "online"
	ModeTrain  GameMode = "train"
)

// Valid reports whether m is a known mode.
func (m GameMode) Valid() bool {
	switch m {
	case ModePVP, ModePVE, ModeOnline, ModeTrain:
		return true
	}
	return false
}

// AILevel is the strength of the AI opponent in pve and train games.
type AILevel string

// AI levels, weakest first.
const (
	LevelEasy   AILevel = "easy"
	LevelMedium AILevel = "medium"
	LevelHard   AILevel = "hard"
	LevelExpert AILevel = "expert"
)

// Valid reports whether l is a known level.
func (l AILevel) Valid() bool {
	switch l {
	case LevelEasy, LevelMedium, LevelHard, LevelExpert:
		return true
	}
	return false
}

// GameResult is the outcome from user1's point of view.
type GameResult string

// Results.
const (
	ResultWin  GameResult = "win"
	ResultLose GameResult = "lose"
	ResultDraw GameResult = "draw"
)

// Valid reports whether r is a known result.
func (r GameResult) Valid() bool {
	switch r {
	case ResultWin, ResultLose, ResultDraw:
		return true
	}
	return false
}

// Invert returns the same outcome from the other side.
func (r GameResult) Invert() GameResult {
	switch r {
	case ResultWin:
		return ResultLose
	case ResultLose:
		return ResultWin
	}
	return r
}

// Game is the record of one played game. A nil User2ID means the opponent was
// the AI. A game is finalized once EndTime is set, and never changes after.
type Game struct {
	ID             int64                     `gorm:"primaryKey;autoIncrement;column:game_id" json:"id"`
	User1ID        int64                     `gorm:"not null;index" json:"user1_id"`
	User2ID        *int64                    `gorm:"index" json:"user2_id,omitempty"`
	Mode           GameMode                  `gorm:"column:game_mode;type:varchar(10);not null" json:"mode"`
	AILevel        *AILevel                  `gorm:"type:varchar(10)" json:"ai_level,omitempty"`
	Result         *GameResult               `gorm:"type:varchar(10)" json:"result,omitempty"`
	WinnerID       *int64                    `json:"winner_id,omitempty"`
	MoveHistory    datatypes.JSONSlice[Move] `gorm:"not null" json:"move_history"`
	AnalysisReport datatypes.JSON            `gorm:"not null" json:"analysis_report"`
	StartTime      time.Time                 `gorm:"not null;index" json:"start_time"`
	EndTime        *time.Time                `json:"end_time,omitempty"`
	Version        int64                     `gorm:"not null;default:1" json:"-"`

	User1  *User `gorm:"foreignKey:User1ID;constraint:OnDelete:RESTRICT" json:"-"`
	User2  *User `gorm:"foreignKey:User2ID;constraint:OnDelete:RESTRICT" json:"-"`
	Winner *User `gorm:"foreignKey:WinnerID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName pins the table name.
func (Game) TableName() string { return "games" }

// Finalized reports whether the result has been recorded.
func (g *Game) Finalized() bool {
	return g.EndTime != nil
}

// Participants returns the user ids that played, user1 first.
func (g *Game) Participants() []int64 {
	ids := []int64{g.User1ID}
	if g.User2ID != nil {
		ids = append(ids, *g.User2ID)
	}
	return ids
}

// Normalize fills zero-valued JSON columns so nothing is stored as SQL NULL.
func (g *Game) Normalize() {
	if g.MoveHistory == nil {
		g.MoveHistory = datatypes.JSONSlice[Move]{}
	}
	if len(g.AnalysisReport) == 0 {
		g.AnalysisReport = datatypes.JSON("null")
	}
}

// Validate checks every column constraint and the cross-column rules.
func (g *Game) Validate() error {
	v := newValidator("game")
	v.check(g.User1ID > 0, "user1_id", "must be set")
	v.check(g.Mode.Valid(), "game_mode", "must be one of pvp, pve, online, train, got %q", g.Mode)
	if g.User2ID != nil {
		v.check(*g.User2ID != g.User1ID, "user2_id", "must differ from user1_id")
	} else {
		v.check(g.Mode != ModePVP, "user2_id", "must be set for pvp games")
	}
	if g.AILevel != nil {
		v.check(g.AILevel.Valid(), "ai_level", "must be one of easy, medium, hard, expert, got %q", *g.AILevel)
	}
	v.check(!g.StartTime.IsZero(), "start_time", "must be set")
	if g.EndTime != nil {
		v.check(!g.EndTime.Before(g.StartTime), "end_time", "must not be before start_time")
		v.check(g.Result != nil, "result", "must be set when end_time is set")
	}
	if g.Result != nil {
		v.check(g.Result.Valid(), "result", "must be one of win, lose, draw, got %q", *g.Result)
		v.check(g.EndTime != nil, "end_time", "must be set when result is set")
	}
	if g.WinnerID != nil {
		ok := *g.WinnerID == g.User1ID || (g.User2ID != nil && *g.WinnerID == *g.User2ID)
		v.check(ok, "winner_id", "must be one of the players")
	}
	for _, m := range g.MoveHistory {
		v.check(m.Validate() == nil && ValidPlayer(m.Player), "move_history", "has invalid move %+v", m)
	}
	return v.result()
}

// NextPlayer is the side to move given the history. Black opens.
func (g *Game) NextPlayer() int {
	if len(g.MoveHistory)%2 == 0 {
		return PlayerBlack
	}
	return PlayerWhite
}

// AppendMove adds m to the history. The player defaults to the side to move.
func (g *Game) AppendMove(m Move, now time.Time) error {
	if g.Finalized() {
		return &StateError{Entity: "game", ID: g.ID, Reason: "game is finalized"}
	}
	if err := m.Validate(); err != nil {
		return err
	}

	next := g.NextPlayer()
	if m.Player == 0 {
		m.Player = next
	}
	if m.Player != next {
		return &StateError{Entity: "game", ID: g.ID, Reason: "not this player's turn"}
	}
	if m.Time.IsZero() {
		m.Time = now
	}

	g.MoveHistory = append(g.MoveHistory, m)
	return nil
}

// winnerFor works out the winner id implied by result, and checks a winner the
// caller supplied against it. A nil winner on a lost game against the AI means
// the AI won.
func (g *Game) winnerFor(result GameResult, claimed *int64) (*int64, error) {
	if !result.Valid() {
		return nil, Invalid("game", "result", "must be one of win, lose, draw, got %q", result)
	}

	var want *int64
	switch result {
	case ResultWin:
		id := g.User1ID
		want = &id
	case ResultLose:
		if g.User2ID != nil {
			id := *g.User2ID
			want = &id
		}
	}

	if claimed != nil {
		if want == nil || *want != *claimed {
			return nil, Invalid("game", "winner_id", "%d does not match result %q", *claimed, result)
		}
	}

	return want, nil
}

// Finalize sets the result, winner and end time. It fails with a StateError
// on an already finalized game.
func (g *Game) Finalize(result GameResult, claimed *int64, now time.Time) error {
	if g.Finalized() {
		return &StateError{Entity: "game", ID: g.ID, Reason: "game is already finalized"}
	}

	winner, err := g.winnerFor(result, claimed)
	if err != nil {
		return err
	}

	end := now
	if end.Before(g.StartTime) {
		end = g.StartTime
	}

	g.Result = &result
	g.WinnerID = winner
	g.EndTime = &end
	return nil
}

// GamePatch changes an unfinished game. Nil fields are left alone.
type GamePatch struct {
	AILevel        *AILevel       `json:"ai_level,omitempty"`
	AnalysisReport datatypes.JSON `json:"analysis_report,omitempty"`
}

// Apply copies the set fields onto g.
func (p *GamePatch) Apply(g *Game) {
	if p.AILevel != nil {
		g.AILevel = p.AILevel
	}
	if len(p.AnalysisReport) > 0 {
		g.AnalysisReport = p.AnalysisReport
	}
}

// GameFilter selects games for listing.
type GameFilter struct {
	// UserID matches either seat.
	UserID       int64
	Mode         GameMode
	FinishedOnly bool
	Limit        int
}
