package lesson

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ayalat/maarekhet/core"
)

// Lesson identity is immutable once created; slots and attendance entries
// reference it by ID, never embed it by value.
type Lesson struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Teacher   string    `json:"teacher"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewLesson struct {
	Name    string `json:"name" validate:"required"`
	Teacher string `json:"teacher" validate:"required"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Name = core.CleanString(nl.Name)
	nl.Teacher = core.CleanString(nl.Teacher)
	return validate.Struct(nl)
}

// UpdateLesson only applies non-empty fields; at least one is required.
type UpdateLesson struct {
	Name    string `json:"name" validate:"required_without=Teacher"`
	Teacher string `json:"teacher" validate:"required_without=Name"`
}

func (ul *UpdateLesson) Validate(validate *validator.Validate) error {
	ul.Name = core.CleanString(ul.Name)
	ul.Teacher = core.CleanString(ul.Teacher)
	return validate.Struct(ul)
}
