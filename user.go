package gobang

import "time"

// User is a registered player. Win/lose/draw counters are only ever changed by
// finalizing a game.
type User struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username      string     `gorm:"type:varchar(50);not null;uniqueIndex" json:"username"`
	PasswordHash  string     `gorm:"type:varchar(255);not null" json:"-"`
	Nickname      string     `gorm:"type:varchar(50);not null" json:"nickname"`
	WinCount      int64      `gorm:"not null;default:0" json:"win_count"`
	LoseCount     int64      `gorm:"not null;default:0" json:"lose_count"`
	DrawCount     int64      `gorm:"not null;default:0" json:"draw_count"`
	CreateTime    time.Time  `gorm:"autoCreateTime" json:"create_time"`
	LastLoginTime *time.Time `json:"last_login_time,omitempty"`
}

// TableName pins the table name.
func (User) TableName() string { return "users" }

// Games returns the number of games with a recorded result.
func (u *User) Games() int64 {
	return u.WinCount + u.LoseCount + u.DrawCount
}

// Validate checks every column constraint.
func (u *User) Validate() error {
	v := newValidator("user")
	v.required("username", u.Username, 50)
	v.required("password_hash", u.PasswordHash, 255)
	v.required("nickname", u.Nickname, 50)
	v.check(u.WinCount >= 0, "win_count", "must be >= 0")
	v.check(u.LoseCount >= 0, "lose_count", "must be >= 0")
	v.check(u.DrawCount >= 0, "draw_count", "must be >= 0")
	return v.result()
}

// NewUser is the input for registering a user. The password is hashed by the
// store and never persisted in clear.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Validate checks the registration input.
func (n *NewUser) Validate() error {
	v := newValidator("user")
	v.required("username", n.Username, 50)
	v.check(len(n.Password) >= MinPasswordLength, "password", "must be at least %d characters", MinPasswordLength)
	if n.Nickname != "" {
		v.required("nickname", n.Nickname, 50)
	}
	return v.result()
}

// UserPatch changes a user. Nil fields are left alone.
type UserPatch struct {
	Nickname *string `json:"nickname,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserFilter selects users for listing.
type UserFilter struct {
	UsernamePrefix string
	// OrderByWins sorts the leaderboard way: most wins first.
	OrderByWins bool
	Limit       int
}
