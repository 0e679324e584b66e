package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/peneus/internal/apperr"
)

var validate = validator.New()

// Validate checks data against rules.  A column missing from data is
// validated as the empty string, so "required" catches it.  The first
// failing column (in name order) is reported as InvalidInput.
func Validate(rules Rules, data map[string]any) error {
	cols := make([]string, 0, len(rules))
	for c := range rules {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	for _, col := range cols {
		tag := strings.TrimSpace(rules[col])
		if tag == "" {
			continue
		}
		v, ok := data[col]
		if !ok || v == nil {
			v = ""
		}
		if err := validate.Var(v, tag); err != nil {
			return apperr.InvalidInput("Invalid value for '%s': %s.", col, describe(err))
		}
	}
	return nil
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return "failed " + fe.Tag()
	}
	return err.Error()
}
