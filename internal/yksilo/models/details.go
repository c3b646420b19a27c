package models

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	dErrors "yksilo/pkg/domain-errors"
)

func validationError(message string, err error) error {
	if err == nil {
		return nil
	}
	errs, ok := err.(validation.Errors)
	if !ok {
		return dErrors.Wrap(err, dErrors.CodeValidation, message)
	}
	details := make([]string, 0, len(errs))
	for field, fieldErr := range errs {
		details = append(details, field+": "+fieldErr.Error())
	}
	sort.Strings(details)
	return dErrors.WithDetails(dErrors.CodeValidation, message, details...)
}
