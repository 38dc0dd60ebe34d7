package store

import (
	"fmt"
	"strings"

	"github.com/icco/gobang"
	"gorm.io/gorm"
)

// requireUser fails with a ForeignKeyError when no user has the id. column
// names the referencing column for the error message.
func requireUser(tx *gorm.DB, id int64, column string) error {
	var n int64
	if err := tx.Model(&gobang.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("check user %d: %w", id, err)
	}
	if n == 0 {
		return &gobang.ForeignKeyError{Table: "users", Column: column, ID: id}
	}
	return nil
}

// requireUsers checks each id in turn, skipping nil ones.
func requireUsers(tx *gorm.DB, refs map[string]*int64) error {
	for _, column := range []string{"user_id", "user1_id", "user2_id", "host_id", "guest_id", "winner_id"} {
		id, ok := refs[column]
		if !ok || id == nil {
			continue
		}
		if err := requireUser(tx, *id, column); err != nil {
			return err
		}
	}
	return nil
}

// requireModel fails with a ForeignKeyError when the model does not exist or
// belongs to someone other than owner.
func requireModel(tx *gorm.DB, id, owner int64) error {
	var n int64
	if err := tx.Model(&gobang.Model{}).Where("model_id = ? AND user_id = ?", id, owner).Count(&n).Error; err != nil {
		return fmt.Errorf("check model %d: %w", id, err)
	}
	if n == 0 {
		return &gobang.ForeignKeyError{Table: "ai_models", Column: "model_id", ID: id}
	}
	return nil
}

// requireUniqueUsername checks nobody else holds the name.
func requireUniqueUsername(tx *gorm.DB, username string, self int64) error {
	var n int64
	if err := tx.Model(&gobang.User{}).Where("username = ? AND id <> ?", username, self).Count(&n).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if n > 0 {
		return gobang.Invalid("user", "username", "%q is already taken", username)
	}
	return nil
}

// requireUniqueModelName checks the owner has no other model of that name.
func requireUniqueModelName(tx *gorm.DB, owner int64, name string, self int64) error {
	var n int64
	err := tx.Model(&gobang.Model{}).
		Where("user_id = ? AND model_name = ? AND model_id <> ?", owner, name, self).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check model name: %w", err)
	}
	if n > 0 {
		return gobang.Invalid("model", "model_name", "%q is already used by this user", name)
	}
	return nil
}

// verifySingleDefault runs after any write touching is_default. More than one
// default means a concurrent writer slipped in, so the transaction is rerun.
func verifySingleDefault(tx *gorm.DB, owner int64) error {
	var n int64
	if err := tx.Model(&gobang.Model{}).Where("user_id = ? AND is_default = ?", owner, true).Count(&n).Error; err != nil {
		return fmt.Errorf("count default models: %w", err)
	}
	if n > 1 {
		return errRetry
	}
	return nil
}

// clearDefaults unsets is_default on every model of owner except keep.
func clearDefaults(tx *gorm.DB, owner, keep int64) error {
	return tx.Model(&gobang.Model{}).
		Where("user_id = ? AND model_id <> ? AND is_default = ?", owner, keep, true).
		Update("is_default", false).Error
}

// userReferences lists what still points at a user, for the restrict-delete
// policy. The first referencing table found is reported.
func userReferences(tx *gorm.DB, id int64) error {
	checks := []struct {
		model  interface{}
		column string
		where  string
	}{
		{&gobang.Model{}, "ai_models.user_id", "user_id = ?"},
		{&gobang.TrainingData{}, "training_data.user_id", "user_id = ?"},
		{&gobang.Game{}, "games.user1_id", "user1_id = ? OR user2_id = ? OR winner_id = ?"},
		{&gobang.Room{}, "online_rooms.host_id", "host_id = ? OR guest_id = ?"},
	}

	for _, c := range checks {
		args := make([]interface{}, strings.Count(c.where, "?"))
		for i := range args {
			args[i] = id
		}

		var n int64
		if err := tx.Model(c.model).Where(c.where, args...).Count(&n).Error; err != nil {
			return fmt.Errorf("check references to user %d: %w", id, err)
		}
		if n > 0 {
			return &gobang.ForeignKeyError{Table: "users", Column: c.column, ID: id, Referenced: true}
		}
	}
	return nil
}
