// Package classify resolves types into JSON Schema type descriptions.
//
// The Classifier applies an ordered list of steps (substitution, explicit
// schema, enums, scalar table, binary shapes, dynamic placeholders, nullable
// wrappers, dictionaries, sequences) and returns the result of the first step
// that matches; anything left over is an object.
package classify

import "fmt"

// Kind is the JSON kind of a type description.
type Kind int

const (
	// KindNone is a dynamic value with no schema constraints.
	KindNone Kind = iota
	KindObject
	KindString
	KindInteger
	KindNumber
	KindBoolean
	KindArray
	// KindFile is an uploaded file (swagger2 dialect only).
	KindFile
)

// String returns the JSON Schema type keyword for the kind.
// KindNone returns the empty string.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindFile:
		return "file"
	default:
		return ""
	}
}

// ParseKind parses a JSON Schema type keyword.
// Empty, "any" and "null" parse as KindNone.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "", "any", "null":
		return KindNone, true
	case "object":
		return KindObject, true
	case "string":
		return KindString, true
	case "integer":
		return KindInteger, true
	case "number":
		return KindNumber, true
	case "boolean":
		return KindBoolean, true
	case "array":
		return KindArray, true
	case "file":
		return KindFile, true
	}
	return KindNone, false
}

// Well-known format tags.
const (
	FormatDateTime = "date-time"
	FormatDate     = "date"
	FormatTime     = "time"
	FormatGUID     = "guid"
	FormatURI      = "uri"
	FormatByte     = "byte"
	FormatBinary   = "binary"
	FormatInt32    = "int32"
	FormatInt64    = "int64"
	FormatUint64   = "uint64"
	FormatFloat    = "float"
	FormatDouble   = "double"
	FormatDecimal  = "decimal"
)

// Description is the normalized classification of a type.
type Description struct {
	Kind           Kind
	Format         string
	IsNullable     bool
	IsEnumAsString bool
}

func (d Description) String() string {
	s := d.Kind.String()
	if s == "" {
		s = "any"
	}
	if d.Format != "" {
		s += "(" + d.Format + ")"
	}
	if d.IsNullable {
		s += "?"
	}
	if d.IsEnumAsString {
		s += " enum-as-string"
	}
	return s
}

// NullabilityPolicy controls how reference types without explicit
// nullability metadata are treated.
type NullabilityPolicy int

const (
	// PolicyNullable treats unknown reference types as nullable.
	PolicyNullable NullabilityPolicy = iota
	// PolicyNotNull treats unknown reference types as not nullable.
	PolicyNotNull
)

// ParsePolicy parses "nullable" or "notnull". Empty means PolicyNullable.
func ParsePolicy(s string) (NullabilityPolicy, error) {
	switch s {
	case "", "nullable":
		return PolicyNullable, nil
	case "notnull":
		return PolicyNotNull, nil
	}
	return PolicyNullable, fmt.Errorf("unknown null handling: %q (expected \"nullable\" or \"notnull\")", s)
}

// Dialect is the schema flavour the descriptions are produced for.
type Dialect string

const (
	DialectJSONSchema Dialect = "jsonschema"
	DialectOpenAPI3   Dialect = "openapi3"
	DialectSwagger2   Dialect = "swagger2"
)
