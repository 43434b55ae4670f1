package tabular

import "fmt"

// Kind is the coercion and validation category of a field.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindDate
	KindArray
	KindEnum
)

// String returns the lowercase name of the kind, matching the names accepted
// by ParseKind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindArray:
		return "array"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a kind name (as used in profile definition files) to a
// Kind. Accepts the common aliases "text", "numeric" and "boolean".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "string", "text":
		return KindString, nil
	case "number", "numeric":
		return KindNumber, nil
	case "bool", "boolean":
		return KindBool, nil
	case "date":
		return KindDate, nil
	case "array":
		return KindArray, nil
	case "enum":
		return KindEnum, nil
	default:
		return KindString, fmt.Errorf("unknown field kind %q", s)
	}
}

// TransformFunc converts a raw cell value to the field's final value.
// When set on a FieldSpec it fully replaces kind-based coercion for that
// field. The reader treats a transform error as a warning and keeps the raw
// value; the writer propagates row transform errors unchanged.
type TransformFunc func(raw any) (any, error)

// FieldSpec declares one internal field: its kind, whether the source column
// may be absent (Optional), whether a null value is acceptable (Nullable),
// the allowed values for enum fields, and an optional transform override.
type FieldSpec struct {
	Name       string
	Kind       Kind
	Optional   bool // the mapped column may be missing from the sheet
	Nullable   bool // an empty cell is acceptable and kept as nil
	EnumValues []string
	Transform  TransformFunc
}

// ColumnMapping associates an external column label (the literal spreadsheet
// header) with an internal field name. Within one reader configuration the
// mapping must be injective: two headers must not target the same field.
type ColumnMapping struct {
	Header string // external column label
	Field  string // internal field name
}
