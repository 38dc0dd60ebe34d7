package gobang

import "time"

// TrainingData is one training sample: a board state and the move chosen for
// it. Rows are never changed after insert.
type TrainingData struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:data_id" json:"id"`
	UserID     int64     `gorm:"not null;index" json:"user_id"`
	ModelID    *int64    `gorm:"index" json:"model_id,omitempty"`
	InputData  string    `gorm:"type:text;not null" json:"input_data"`
	OutputData string    `gorm:"type:text;not null" json:"output_data"`
	Score      float64   `gorm:"not null;default:0" json:"score"`
	CreateTime time.Time `gorm:"autoCreateTime" json:"create_time"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName pins the table name.
func (TrainingData) TableName() string { return "training_data" }

// Validate checks every column constraint.
func (d *TrainingData) Validate() error {
	v := newValidator("training_data")
	v.check(d.UserID > 0, "user_id", "must be set")
	v.check(d.ModelID == nil || *d.ModelID > 0, "model_id", "must be positive when set")
	v.required("input_data", d.InputData, 0)
	v.required("output_data", d.OutputData, 0)
	return v.result()
}

// TrainingFilter selects training rows for listing.
type TrainingFilter struct {
	UserID  int64
	ModelID *int64
	Limit   int
}
