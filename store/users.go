package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/icco/gobang"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser registers a user. The password is stored as a bcrypt hash and
// the nickname defaults to the username.
func (s *Store) CreateUser(ctx context.Context, in gobang.NewUser) (u *gobang.User, err error) {
	defer s.observe("create_user", time.Now(), &err)

	in.Username = strings.TrimSpace(in.Username)
	in.Nickname = strings.TrimSpace(in.Nickname)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &gobang.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Nickname:     in.Nickname,
	}
	if user.Nickname == "" {
		user.Nickname = user.Username
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	err = s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireUniqueUsername(tx, user.Username, 0); err != nil {
			return err
		}
		return writeErr(tx.Create(user).Error, "user", "username")
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (*gobang.User, error) {
	var u gobang.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

// GetUserByUsername loads a user by its unique name.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*gobang.User, error) {
	var u gobang.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &gobang.NotFoundError{Entity: "user", Key: username}
	}
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return &u, nil
}

// UpdateUser changes the nickname or password. Counters are not patchable.
func (s *Store) UpdateUser(ctx context.Context, id int64, p gobang.UserPatch) (u *gobang.User, err error) {
	defer s.observe("update_user", time.Now(), &err)

	var hash string
	if p.Password != nil {
		if len(*p.Password) < gobang.MinPasswordLength {
			return nil, gobang.Invalid("user", "password", "must be at least %d characters", gobang.MinPasswordLength)
		}
		b, err := bcrypt.GenerateFromPassword([]byte(*p.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = string(b)
	}

	var user gobang.User
	err = s.tx(ctx, func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&user, "id = ?", id).Error; err != nil {
			return notFound(err, "user", id)
		}

		if p.Nickname != nil {
			user.Nickname = strings.TrimSpace(*p.Nickname)
		}
		if hash != "" {
			user.PasswordHash = hash
		}
		if err := user.Validate(); err != nil {
			return err
		}

		return tx.Model(&gobang.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"nickname":      user.Nickname,
			"password_hash": user.PasswordHash,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers lists users, by id or leaderboard style.
func (s *Store) ListUsers(ctx context.Context, f gobang.UserFilter) ([]gobang.User, error) {
	q := s.db.WithContext(ctx).Model(&gobang.User{})
	if f.UsernamePrefix != "" {
		q = q.Where("username LIKE ? ESCAPE '\\'", escapeLike(f.UsernamePrefix)+"%")
	}
	if f.OrderByWins {
		q = q.Order("win_count DESC").Order("lose_count ASC").Order("id ASC")
	} else {
		q = q.Order("id ASC")
	}

	var users []gobang.User
	if err := limit(q, f.Limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CheckPassword loads the user and compares the password against the stored
// hash. Unknown users and wrong passwords give the same NotFoundError.
func (s *Store) CheckPassword(ctx context.Context, username, password string) (*gobang.User, error) {
	u, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, &gobang.NotFoundError{Entity: "user", Key: username}
	}
	return u, nil
}

// TouchLogin stamps last_login_time.
func (s *Store) TouchLogin(ctx context.Context, id int64) error {
	now := s.now()
	res := s.db.WithContext(ctx).Model(&gobang.User{}).Where("id = ?", id).Update("last_login_time", now)
	if res.Error != nil {
		return fmt.Errorf("touch login %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gobang.NotFound("user", id)
	}
	return nil
}

// DeleteUser removes a user nothing references. Users with models, training
// data, games or rooms are kept and a ForeignKeyError is returned.
func (s *Store) DeleteUser(ctx context.Context, id int64) (err error) {
	defer s.observe("delete_user", time.Now(), &err)

	return s.tx(ctx, func(tx *gorm.DB) error {
		var u gobang.User
		if err := forUpdate(tx).First(&u, "id = ?", id).Error; err != nil {
			return notFound(err, "user", id)
		}
		if err := userReferences(tx, id); err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
