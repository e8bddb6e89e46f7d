package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	dErrors "docverify/pkg/domain-errors"
)

type submitForm struct {
	ApplicationID string `validate:"required,max=64,printascii"`
	AccountID     string `validate:"required,uuid"`
}

var formFieldNames = map[string]string{
	"ApplicationID": "application_id",
	"AccountID":     "account_id",
}

type formValidator struct {
	v *validator.Validate
}

func newFormValidator() *formValidator {
	return &formValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// validate reports the first failing field by its form name.
func (v *formValidator) validate(form submitForm) error {
	err := v.v.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid form")
	}
	fe := verrs[0]
	field := formFieldNames[fe.Field()]
	switch fe.Tag() {
	case "required":
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	case "max":
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	default:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is not a valid %s", field, fe.Tag()))
	}
}
