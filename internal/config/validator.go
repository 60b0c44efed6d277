package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the settings ranges enforced at the boundary of the
// generation core.
func (s *Settings) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid configuration file: %w", err)
	}
	return nil
}
