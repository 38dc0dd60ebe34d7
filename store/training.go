package store

import (
	"context"
	"fmt"
	"time"

	"github.com/icco/gobang"
	"gorm.io/gorm"
)

// CreateTrainingData stores one sample. A model, when given, must belong to
// the same user.
func (s *Store) CreateTrainingData(ctx context.Context, d *gobang.TrainingData) (err error) {
	defer s.observe("create_training_data", time.Now(), &err)

	d.ID = 0
	if err := d.Validate(); err != nil {
		return err
	}

	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireUser(tx, d.UserID, "user_id"); err != nil {
			return err
		}
		if d.ModelID != nil {
			if err := requireModel(tx, *d.ModelID, d.UserID); err != nil {
				return err
			}
		}
		return writeErr(tx.Create(d).Error, "training_data", "id")
	})
}

// GetTrainingData loads a sample by id.
func (s *Store) GetTrainingData(ctx context.Context, id int64) (*gobang.TrainingData, error) {
	var d gobang.TrainingData
	if err := s.db.WithContext(ctx).First(&d, "data_id = ?", id).Error; err != nil {
		return nil, notFound(err, "training_data", id)
	}
	return &d, nil
}

// UpdateTrainingData always fails: samples are immutable. Missing rows still
// report NotFoundError.
func (s *Store) UpdateTrainingData(ctx context.Context, id int64) error {
	if _, err := s.GetTrainingData(ctx, id); err != nil {
		return err
	}
	return &gobang.StateError{Entity: "training_data", ID: id, Reason: "training data is immutable"}
}

// ListTrainingData lists samples in insert order.
func (s *Store) ListTrainingData(ctx context.Context, f gobang.TrainingFilter) ([]gobang.TrainingData, error) {
	q := s.db.WithContext(ctx).Model(&gobang.TrainingData{})
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.ModelID != nil {
		q = q.Where("model_id = ?", *f.ModelID)
	}

	var rows []gobang.TrainingData
	if err := limit(q.Order("data_id ASC"), f.Limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list training data: %w", err)
	}
	return rows, nil
}

// ClearTrainingData deletes every sample of a user and returns how many went.
func (s *Store) ClearTrainingData(ctx context.Context, userID int64) (n int64, err error) {
	defer s.observe("clear_training_data", time.Now(), &err)

	err = s.tx(ctx, func(tx *gorm.DB) error {
		if err := requireUser(tx, userID, "user_id"); err != nil {
			return err
		}
		res := tx.Where("user_id = ?", userID).Delete(&gobang.TrainingData{})
		n = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}

	s.log.Infow("training data cleared", "user_id", userID, "rows", n)
	return n, nil
}
