package profile

import (
	"fmt"
	"math"
	"strings"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string
	Message string
}

// StoreValidationError is returned by a Store when a document fails schema
// validation. Its message is safe to return to clients verbatim.
type StoreValidationError struct {
	Fields []FieldError
}

func (e *StoreValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "profile validation failed: " + strings.Join(parts, ", ")
}

// Validate applies the store schema to doc.
func Validate(doc Document) error {
	var fields []FieldError
	required := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			fields = append(fields, FieldError{Field: name, Message: "is required"})
		}
	}
	required("name", doc.Name)
	required("description", doc.Description)
	required("address", doc.Address)

	coordinate := func(name string, v *float64, limit float64) {
		if v == nil {
			return
		}
		switch {
		case math.IsNaN(*v) || math.IsInf(*v, 0):
			fields = append(fields, FieldError{Field: name, Message: "must be a finite number"})
		case *v < -limit || *v > limit:
			fields = append(fields, FieldError{Field: name, Message: fmt.Sprintf("must be between %g and %g", -limit, limit)})
		}
	}
	coordinate("location.lat", doc.Location.Lat, 90)
	coordinate("location.lng", doc.Location.Lng, 180)

	for i, tag := range doc.Interests {
		if strings.TrimSpace(tag) == "" {
			fields = append(fields, FieldError{Field: fmt.Sprintf("interests.%d", i), Message: "must not be empty"})
		}
	}

	if len(fields) > 0 {
		return &StoreValidationError{Fields: fields}
	}
	return nil
}
