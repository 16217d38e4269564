package handler

import (
	"github.com/bazaar/storefront-gateway/internal/pkg/validate"
)

// echoValidator lets Echo call c.Validate(req) through the shared validator.
type echoValidator struct {
	v *validate.Validator
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{v: validate.New()}
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	return ev.v.Struct(i)
}
