package tabular

// schema.go provides record validation. The reader only depends on the
// Validator interface, so callers can swap in their own implementation;
// Schema is the default, built from the same FieldSpecs that drive coercion.

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Validator is the schema collaborator consumed by the reader: look up a
// field's spec for coercion, and validate a fully assembled record.
type Validator interface {
	// Spec returns the declaration for a field and whether it is known.
	Spec(field string) (FieldSpec, bool)

	// Validate checks a record and returns field-indexed messages, or an
	// empty map when the record is valid.
	Validate(rec *Record) map[string]string
}

// Schema is the default Validator, a declarative set of FieldSpecs.
// Immutable after construction; safe for concurrent use.
type Schema struct {
	fields []FieldSpec
	index  map[string]int
}

// NewSchema builds a schema from field declarations. Duplicate field names
// are a configuration error.
func NewSchema(fields ...FieldSpec) (*Schema, error) {
	s := &Schema{
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q in schema", f.Name)
		}
		if f.Kind == KindEnum && len(f.EnumValues) == 0 {
			return nil, fmt.Errorf("enum field %q declares no values", f.Name)
		}
		s.index[f.Name] = i
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Use only for static
// declarations where a bad schema is a programming error.
func MustSchema(fields ...FieldSpec) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the declared fields in order.
func (s *Schema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// Spec implements Validator.
func (s *Schema) Spec(field string) (FieldSpec, bool) {
	i, ok := s.index[field]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// Validate implements Validator. Every declared field is checked against its
// kind; all failing fields are reported at once.
func (s *Schema) Validate(rec *Record) map[string]string {
	errs := make(map[string]string)

	for _, spec := range s.fields {
		value, _ := rec.Get(spec.Name)

		if isNull(value, spec) {
			if !spec.Optional && !spec.Nullable {
				errs[spec.Name] = "required value is missing"
			}
			continue
		}

		if msg := checkKind(value, spec); msg != "" {
			errs[spec.Name] = msg
		}
	}

	return errs
}

// isNull reports whether a coerced value counts as absent for the field.
// String fields coerce missing cells to "", so the empty string is their
// null form.
func isNull(value any, spec FieldSpec) bool {
	if value == nil {
		return true
	}
	if spec.Kind == KindString {
		s, ok := value.(string)
		return ok && s == ""
	}
	return false
}

// checkKind validates a non-null value against the field kind, returning a
// message on failure.
func checkKind(value any, spec FieldSpec) string {
	switch spec.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("expected text, got %T", value)
		}
	case KindNumber:
		f, ok := value.(float64)
		if !ok {
			return fmt.Sprintf("expected a number, got %T", value)
		}
		if math.IsNaN(f) {
			return "invalid number"
		}
	case KindBool:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("expected a boolean, got %T", value)
		}
	case KindDate:
		if _, ok := value.(time.Time); !ok {
			return "invalid date"
		}
	case KindArray:
		if _, ok := value.([]any); !ok {
			return fmt.Sprintf("expected an array, got %T", value)
		}
	case KindEnum:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected text, got %T", value)
		}
		for _, option := range spec.EnumValues {
			if s == option {
				return ""
			}
		}
		return fmt.Sprintf("value must be one of: %s", strings.Join(spec.EnumValues, ", "))
	}
	return ""
}
