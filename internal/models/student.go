package models

import (
	"github.com/go-playground/validator/v10"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

type Student struct {
	ID        int64  `db:"id" json:"id"`
	StudentID string `db:"student_id" json:"student_id" validate:"required,max=32"`
	Name      string `db:"name" json:"name" validate:"required"`
	Section   string `db:"section" json:"section" validate:"required,max=16"`
	Email     string `db:"email" json:"email" validate:"required,email"`
	Role      Role   `db:"role" json:"role" validate:"oneof=admin user"`
	Status    Status `db:"status" json:"status" validate:"oneof=active suspended"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}

func (s *Student) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s *Student) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
