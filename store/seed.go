package store

import (
	"context"
	"path/filepath"

	"github.com/icco/gobang"
)

// DefaultModels are the built-in models every installation starts with. The
// expert model is the default.
var DefaultModels = []gobang.Model{
	{Name: "Default easy", Type: gobang.ModelMinimax, Accuracy: 0.75, TrainCount: 1000, Path: "default_easy.pth"},
	{Name: "Default medium", Type: gobang.ModelMinimax, Accuracy: 0.85, TrainCount: 3000, Path: "default_medium.pth"},
	{Name: "Default hard", Type: gobang.ModelMinimaxMCTS, Accuracy: 0.92, TrainCount: 5000, Path: "default_hard.pth"},
	{Name: "Default expert", Type: gobang.ModelNNMCTS, Accuracy: 0.98, TrainCount: 10000, Path: "default_expert.pth", IsDefault: true},
}

// SeedDefaultModels gives owner the built-in models, with paths under dir.
// Nothing happens when owner already has a default model, so it is safe to
// run on every start. It returns how many models were created.
func (s *Store) SeedDefaultModels(ctx context.Context, owner int64, dir string) (int, error) {
	existing, err := s.ListModels(ctx, gobang.ModelFilter{UserID: owner, DefaultOnly: true})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	n := 0
	for _, m := range DefaultModels {
		m.UserID = owner
		m.Path = filepath.Join(dir, m.Path)
		if err := s.CreateModel(ctx, &m); err != nil {
			return n, err
		}
		n++
	}

	s.log.Infow("default models seeded", "user_id", owner, "models", n)
	return n, nil
}
