package models

import (
	"github.com/go-playground/validator/v10"
)

// PointEntry is one engagement-point award. An entry belongs to exactly
// one student; Section is captured at award time so history stays stable
// if the student later changes section.
type PointEntry struct {
	ID        int64  `db:"id" json:"id"`
	StudentID int64  `db:"student_id" json:"student_id" validate:"required"`
	Points    int    `db:"points" json:"points" validate:"required"`
	Reason    string `db:"reason" json:"reason" validate:"required"`
	Section   string `db:"section" json:"section" validate:"required,max=16"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

func (e *PointEntry) Validate() error {
	validate := validator.New()
	return validate.Struct(e)
}
