package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/icco/gobang"
	"gorm.io/gorm"
)

// CreateModel stores a trained model. A model created as default replaces the
// owner's previous default in the same transaction.
func (s *Store) CreateModel(ctx context.Context, m *gobang.Model) (err error) {
	defer s.observe("create_model", time.Now(), &err)

	m.ID = 0
	m.Name = strings.TrimSpace(m.Name)
	if err := m.Validate(); err != nil {
		return err
	}

	return s.retry(ctx, "create_model", "model", 0, func(tx *gorm.DB) error {
		if err := lockUser(tx, m.UserID, "user_id"); err != nil {
			return err
		}
		if err := requireUniqueModelName(tx, m.UserID, m.Name, 0); err != nil {
			return err
		}

		m.ID = 0
		if err := tx.Create(m).Error; err != nil {
			return writeErr(err, "model", "model_name")
		}

		if m.IsDefault {
			if err := clearDefaults(tx, m.UserID, m.ID); err != nil {
				return err
			}
		}
		return verifySingleDefault(tx, m.UserID)
	})
}

// GetModel loads a model by id.
func (s *Store) GetModel(ctx context.Context, id int64) (*gobang.Model, error) {
	var m gobang.Model
	if err := s.db.WithContext(ctx).First(&m, "model_id = ?", id).Error; err != nil {
		return nil, notFound(err, "model", id)
	}
	return &m, nil
}

// UpdateModel applies p. Setting IsDefault true goes through the same path as
// SetDefaultModel.
func (s *Store) UpdateModel(ctx context.Context, id int64, p gobang.ModelPatch) (m *gobang.Model, err error) {
	defer s.observe("update_model", time.Now(), &err)

	var model gobang.Model
	err = s.retry(ctx, "update_model", "model", id, func(tx *gorm.DB) error {
		model = gobang.Model{}
		if err := tx.First(&model, "model_id = ?", id).Error; err != nil {
			return notFound(err, "model", id)
		}
		if err := lockUser(tx, model.UserID, "user_id"); err != nil {
			return err
		}
		if err := forUpdate(tx).First(&model, "model_id = ?", id).Error; err != nil {
			return notFound(err, "model", id)
		}

		p.Apply(&model)
		model.Name = strings.TrimSpace(model.Name)
		if p.IsDefault != nil {
			model.IsDefault = *p.IsDefault
		}
		if err := model.Validate(); err != nil {
			return err
		}
		if p.Name != nil {
			if err := requireUniqueModelName(tx, model.UserID, model.Name, model.ID); err != nil {
				return err
			}
		}

		err := tx.Model(&gobang.Model{}).Where("model_id = ?", id).Updates(map[string]interface{}{
			"model_name":  model.Name,
			"model_path":  model.Path,
			"accuracy":    model.Accuracy,
			"train_count": model.TrainCount,
			"is_default":  model.IsDefault,
		}).Error
		if err != nil {
			return writeErr(err, "model", "model_name")
		}

		if model.IsDefault {
			if err := clearDefaults(tx, model.UserID, model.ID); err != nil {
				return err
			}
		}
		return verifySingleDefault(tx, model.UserID)
	})
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// ListModels lists models, newest first.
func (s *Store) ListModels(ctx context.Context, f gobang.ModelFilter) ([]gobang.Model, error) {
	q := s.db.WithContext(ctx).Model(&gobang.Model{})
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		q = q.Where("model_type = ?", f.Type)
	}
	if f.DefaultOnly {
		q = q.Where("is_default = ?", true)
	}

	var models []gobang.Model
	if err := q.Order("model_id DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return models, nil
}

// SetDefaultModel makes modelID the owner's only default model. It is
// idempotent, and fails with a NotFoundError when userID does not own the
// model.
func (s *Store) SetDefaultModel(ctx context.Context, userID, modelID int64) (err error) {
	defer s.observe("set_default_model", time.Now(), &err)

	return s.retry(ctx, "set_default_model", "model", modelID, func(tx *gorm.DB) error {
		var m gobang.Model
		err := tx.Where("model_id = ? AND user_id = ?", modelID, userID).First(&m).Error
		if err != nil {
			return notFound(err, "model", modelID)
		}
		if err := lockUser(tx, userID, "user_id"); err != nil {
			return err
		}

		if err := clearDefaults(tx, userID, modelID); err != nil {
			return err
		}
		if !m.IsDefault {
			if err := tx.Model(&m).Update("is_default", true).Error; err != nil {
				return err
			}
		}
		return verifySingleDefault(tx, userID)
	})
}

// DefaultModel returns the user's default model.
func (s *Store) DefaultModel(ctx context.Context, userID int64) (*gobang.Model, error) {
	var m gobang.Model
	err := s.db.WithContext(ctx).Where("user_id = ? AND is_default = ?", userID, true).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &gobang.NotFoundError{Entity: "default model", Key: fmt.Sprintf("of user %d", userID)}
	}
	if err != nil {
		return nil, fmt.Errorf("find default model of user %d: %w", userID, err)
	}
	return &m, nil
}

// DeleteModel removes one of the user's models. Models still referenced by
// training data are kept and a ForeignKeyError is returned.
func (s *Store) DeleteModel(ctx context.Context, userID, modelID int64) (err error) {
	defer s.observe("delete_model", time.Now(), &err)

	return s.tx(ctx, func(tx *gorm.DB) error {
		var m gobang.Model
		err := forUpdate(tx).Where("model_id = ? AND user_id = ?", modelID, userID).First(&m).Error
		if err != nil {
			return notFound(err, "model", modelID)
		}

		var n int64
		if err := tx.Model(&gobang.TrainingData{}).Where("model_id = ?", modelID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return &gobang.ForeignKeyError{Table: "ai_models", Column: "training_data.model_id", ID: modelID, Referenced: true}
		}

		if err := tx.Delete(&m).Error; err != nil {
			return err
		}
		s.log.Infow("model deleted", "model_id", modelID, "user_id", userID, "path", m.Path)
		return nil
	})
}

// lockUser checks the user exists and, where supported, locks its row so
// writers touching the same user's models queue up.
func lockUser(tx *gorm.DB, id int64, column string) error {
	if tx.Dialector.Name() != "postgres" {
		return requireUser(tx, id, column)
	}

	var u gobang.User
	err := forUpdate(tx).Select("id").First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &gobang.ForeignKeyError{Table: "users", Column: column, ID: id}
	}
	return err
}
