package gobang

import "time"

// ModelType is the engine family a model was trained for.
type ModelType string

// Model types. The combined types come from engines that stack search on top
// of a network or of minimax.
const (
	ModelNN          ModelType = "nn"
	ModelMinimax     ModelType = "minimax"
	ModelMCTS        ModelType = "mcts"
	ModelMinimaxMCTS ModelType = "minimax+mcts"
	ModelNNMCTS      ModelType = "nn+mcts"
)

// Valid reports whether t is a known model type.
func (t ModelType) Valid() bool {
	switch t {
	case ModelNN, ModelMinimax, ModelMCTS, ModelMinimaxMCTS, ModelNNMCTS:
		return true
	}
	return false
}

// Model is a trained AI model owned by a user. At most one model per user has
// IsDefault set.
type Model struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:model_id" json:"id"`
	Name       string    `gorm:"column:model_name;type:varchar(100);not null;uniqueIndex:idx_model_owner_name" json:"name"`
	UserID     int64     `gorm:"not null;index;uniqueIndex:idx_model_owner_name" json:"user_id"`
	Type       ModelType `gorm:"column:model_type;type:varchar(20);not null" json:"model_type"`
	Path       string    `gorm:"column:model_path;type:varchar(255);not null" json:"model_path"`
	Accuracy   float64   `gorm:"not null;default:0" json:"accuracy"`
	TrainCount int64     `gorm:"not null;default:0" json:"train_count"`
	IsDefault  bool      `gorm:"not null;default:false" json:"is_default"`
	CreateTime time.Time `gorm:"autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"autoUpdateTime" json:"update_time"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName pins the table name.
func (Model) TableName() string { return "ai_models" }

// Validate checks every column constraint.
func (m *Model) Validate() error {
	v := newValidator("model")
	v.required("model_name", m.Name, 100)
	v.check(m.UserID > 0, "user_id", "must be set")
	v.check(m.Type.Valid(), "model_type", "must be one of nn, minimax, mcts, minimax+mcts, nn+mcts, got %q", m.Type)
	v.required("model_path", m.Path, 255)
	v.check(m.Accuracy >= 0 && m.Accuracy <= 1, "accuracy", "must be within [0, 1], got %v", m.Accuracy)
	v.check(m.TrainCount >= 0, "train_count", "must be >= 0")
	return v.result()
}

// ModelPatch changes a model. Nil fields are left alone.
type ModelPatch struct {
	Name       *string  `json:"name,omitempty"`
	Path       *string  `json:"model_path,omitempty"`
	Accuracy   *float64 `json:"accuracy,omitempty"`
	TrainCount *int64   `json:"train_count,omitempty"`
	IsDefault  *bool    `json:"is_default,omitempty"`
}

// Apply copies the set fields onto m. IsDefault is handled by the store since
// it touches other rows.
func (p *ModelPatch) Apply(m *Model) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Path != nil {
		m.Path = *p.Path
	}
	if p.Accuracy != nil {
		m.Accuracy = *p.Accuracy
	}
	if p.TrainCount != nil {
		m.TrainCount = *p.TrainCount
	}
}

// ModelFilter selects models for listing.
type ModelFilter struct {
	UserID      int64
	Type        ModelType
	DefaultOnly bool
}
