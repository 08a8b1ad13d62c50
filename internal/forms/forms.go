// Package forms holds the transient per-entity buffers that sit between raw
// user input and the store. A form accumulates field edits, validates on
// submit, and either yields a record ready for the service layer or a
// field-keyed ValidationError for inline display. Forms never touch the store
// themselves.
package forms

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"opscore/pkg/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldErrors converts validator output into the domain error shape. Field
// names are reported in snake_case to match the record's JSON form.
func fieldErrors(entity domain.EntityType, err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[snakeCase(fe.Field())] = tagMessage(fe)
	}
	return domain.ValidationError{Entity: entity, Fields: fields}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// AddTag appends a trimmed tag unless it is empty or already present.
func AddTag(tags []string, tag string) []string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return tags
	}
	for _, existing := range tags {
		if existing == tag {
			return tags
		}
	}
	return append(tags, tag)
}

// RemoveTag drops every occurrence of tag, preserving order.
func RemoveTag(tags []string, tag string) []string {
	out := tags[:0]
	for _, existing := range tags {
		if existing != tag {
			out = append(out, existing)
		}
	}
	return out
}

// ParseMoney converts a decimal dollar string such as "12.50" into integral
// cents. At most two fraction digits are accepted; negatives are rejected.
func ParseMoney(input string) (int64, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), "$"))
	if trimmed == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(trimmed, "-") {
		return 0, fmt.Errorf("amount must not be negative")
	}
	whole, frac, _ := strings.Cut(trimmed, ".")
	if whole == "" {
		whole = "0"
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", input)
	}
	var cents int64
	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("invalid amount %q: too many fraction digits", input)
		}
		for len(frac) < 2 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", input)
		}
	}
	return dollars*100 + cents, nil
}
