// Package services orchestrates the repositories behind the operations
// the HTTP layer exposes: validation, moderation, and composition live
// here, storage invariants live in the repositories.
package services

import (
	"github.com/go-playground/validator/v10"

	"chathub/errors"
)

var validate = validator.New()

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return errors.Wrap(errors.KindValidation, err, "invalid payload")
	}
	return nil
}
