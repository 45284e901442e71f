package student

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/ayalat/maarekhet/core"
)

var (
	idNumTag  = "idnum"
	idNumText = "invalid ID number"

	statusTag  = "status"
	statusText = "must be one of Present, Late, Absent"
)

// InitValidators registers the student-specific validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(idNumTag, idNumValidation)
	core.RegisterCustomTranslation(validate, translator, idNumTag, idNumText)

	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

// idNumValidation checks the national ID number checksum.
func idNumValidation(fl validator.FieldLevel) bool {
	return ValidIDNumber(fl.Field().String())
}

func statusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).IsValid()
}

type NewStudent struct {
	Name        string `json:"name" validate:"required"`
	IDNumber    string `json:"id_number" validate:"required,idnum"`
	ParentEmail string `json:"parent_email" validate:"required,email"`
	ClassNumber int    `json:"class_number" validate:"required,gt=0"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.IDNumber = core.CleanString(ns.IDNumber)
	ns.ParentEmail = core.CleanString(ns.ParentEmail, true /* lower */)
	return validate.Struct(ns)
}

type UpdateStudent struct {
	Name        string `json:"name" validate:"required"`
	IDNumber    string `json:"id_number" validate:"required,idnum"`
	ParentEmail string `json:"parent_email" validate:"required,email"`
	ClassNumber int    `json:"class_number" validate:"required,gt=0"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.IDNumber = core.CleanString(us.IDNumber)
	us.ParentEmail = core.CleanString(us.ParentEmail, true /* lower */)
	return validate.Struct(us)
}
