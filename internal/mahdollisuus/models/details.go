package models

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func itemPrefix(i int) string {
	return fmt.Sprintf("[%d].", i)
}

func itemDetails(i int, err error) []string {
	errs, ok := err.(validation.Errors)
	if !ok {
		return []string{itemPrefix(i) + err.Error()}
	}
	out := make([]string, 0, len(errs))
	for field, fieldErr := range errs {
		out = append(out, itemPrefix(i)+field+": "+fieldErr.Error())
	}
	sort.Strings(out)
	return out
}
