// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// LoadFrom calls `validateStruct` once defaults are filled.  Any tag
// mismatch aborts startup, so the binary never runs with a missing DSN, a
// short session key, or a malformed listen address.

package config

import "github.com/go-playground/validator/v10"

var v = validator.New()

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
