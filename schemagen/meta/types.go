// Package meta defines the language-agnostic metadata model that schema
// generation consumes. Providers translate Go types into these values; the
// classifier and property resolver only ever read them.
package meta

import "strings"

// Category identifies how a type is stored, which drives default nullability.
type Category int

const (
	// CategoryReference is a type whose zero value is nil (pointer, slice, map, chan, func).
	CategoryReference Category = iota
	// CategoryValue is a type that can never be nil (numbers, bool, string, struct, array).
	CategoryValue
	// CategoryInterface is an interface type.
	CategoryInterface
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryReference:
		return "Reference"
	case CategoryValue:
		return "Value"
	case CategoryInterface:
		return "Interface"
	default:
		return "Unknown"
	}
}

// Capability names a generic shape a type can implement.
type Capability string

const (
	// CapabilityDictionary is a map of key to value (Go maps, iter.Seq2).
	CapabilityDictionary Capability = "Dictionary"
	// CapabilityEnumerable is an ordered sequence (slices, arrays, iter.Seq).
	CapabilityEnumerable Capability = "Enumerable"
	// CapabilityAsyncEnumerable is a sequence produced over time (receive channels).
	CapabilityAsyncEnumerable Capability = "AsyncEnumerable"
)

// NullabilityState is the structural nullability metadata a provider attaches
// to a use site.
type NullabilityState int

const (
	NullabilityUnknown NullabilityState = iota
	NullabilityNullable
	NullabilityNotNullable
)

// String returns the string representation of the state.
func (s NullabilityState) String() string {
	switch s {
	case NullabilityNullable:
		return "Nullable"
	case NullabilityNotNullable:
		return "NotNullable"
	default:
		return "Unknown"
	}
}

// Type describes a type definition.
//
// Type graphs may be cyclic (a struct whose member refers back to it), so
// consumers must not walk Members recursively without tracking visited types.
type Type struct {
	// Name is the simple type name, e.g. "User", "int", "Null[int]".
	Name string

	// Package is the import path. Empty for builtin and unnamed types.
	Package string

	// Category is the storage category.
	Category Category

	// Enum marks a named type with a set of declared constant values.
	Enum bool

	// EnumValues are the declared constant values, in declaration order.
	// Providers convert values to string, int64, float64 or bool.
	EnumValues []any

	// EnumNames are the constant names matching EnumValues.
	EnumNames []string

	// Capability is set when the type is itself the declaration of a
	// capability (iter.Seq is the Enumerable capability).
	Capability Capability

	// Capabilities are the capabilities the type implements, including those
	// inherited from Base.
	Capabilities []Capability

	// Base is the embedded base type whose members are promoted, if any.
	Base *Type

	// Underlying is the builtin type a defined type is declared over
	// ("float64" for "type Celsius float64"). Nil otherwise.
	Underlying *Type

	// Nullable marks a generic nullable wrapper. The wrapped type is
	// GenericArguments[0].
	Nullable bool

	// GenericArguments are the type arguments: element type for sequences,
	// key and value for dictionaries, the wrapped type for nullable wrappers.
	GenericArguments []*ContextualType

	// Attributes are the attributes declared on the type definition.
	Attributes []Attribute

	// Members are the candidate properties, base members first.
	Members []Member

	// Doc is the type documentation, when the provider has it.
	Doc Documentation
}

// FullName returns the package-qualified name, or the simple name for
// builtin types.
func (t *Type) FullName() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

// GenericName returns the name without type arguments ("Null" for "Null[int]").
func (t *Type) GenericName() string {
	if i := strings.IndexByte(t.Name, '['); i >= 0 {
		return t.Name[:i]
	}
	return t.Name
}

// Implements reports whether t implements c, directly or through its base.
func (t *Type) Implements(c Capability) bool {
	if t == nil {
		return false
	}
	if t.Capability == c {
		return true
	}
	for _, have := range t.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Introduces reports whether t is the capability itself, or is the most
// derived type that brings c into its hierarchy: t implements c and its base
// does not.
func (t *Type) Introduces(c Capability) bool {
	if t == nil {
		return false
	}
	if t.Capability == c {
		return true
	}
	return t.Implements(c) && !t.Base.Implements(c)
}

// Attribute returns the first type-level attribute with the given name.
func (t *Type) Attribute(name string) (Attribute, bool) {
	return findAttribute(t.Attributes, name)
}

// ContextualType is a type at a specific use site (a field, a generic argument,
// a root): the type plus the attributes and nullability attached there.
type ContextualType struct {
	Type *Type

	// Attributes are the contextual attributes of the use site.
	Attributes []Attribute

	// Nullability is the structural nullability metadata of the use site.
	Nullability NullabilityState
}

// Of returns a ContextualType for t with no contextual metadata.
func Of(t *Type) *ContextualType {
	return &ContextualType{Type: t}
}

// GenericArguments returns the type arguments of the underlying type.
func (ct *ContextualType) GenericArguments() []*ContextualType {
	return ct.Type.GenericArguments
}

// Attribute returns the first contextual attribute with the given name.
func (ct *ContextualType) Attribute(name string) (Attribute, bool) {
	return findAttribute(ct.Attributes, name)
}

// Has reports whether a contextual attribute with the given name is present.
func (ct *ContextualType) Has(name string) bool {
	_, ok := ct.Attribute(name)
	return ok
}

// Lookup returns the first attribute with the given name, searching the
// contextual attributes before the type-level ones.
func (ct *ContextualType) Lookup(name string) (Attribute, bool) {
	if a, ok := ct.Attribute(name); ok {
		return a, true
	}
	return ct.Type.Attribute(name)
}

// String returns the full type name.
func (ct *ContextualType) String() string {
	if ct == nil || ct.Type == nil {
		return "<nil>"
	}
	return ct.Type.FullName()
}

// Member is a candidate property of an object type.
type Member struct {
	// Name is the declared member name.
	Name string

	// Type is the member type with the member's own attributes.
	Type *ContextualType

	// Field marks a data field, as opposed to an accessor-backed property.
	Field bool

	// Static marks a member that belongs to the type rather than to instances.
	Static bool

	// CanRead and CanWrite report usable accessors.
	CanRead  bool
	CanWrite bool

	// Depth is the embedding depth: 0 for members declared on the type,
	// 1 for members promoted from its base, and so on.
	Depth int

	// Doc is the member documentation, when the provider has it.
	Doc Documentation
}

// Has reports whether the member carries the named attribute.
func (m *Member) Has(name string) bool {
	return m.Type.Has(name)
}

// Attribute returns the member attribute with the given name.
func (m *Member) Attribute(name string) (Attribute, bool) {
	return m.Type.Attribute(name)
}

// Documentation holds documentation comments extracted from Go source.
type Documentation struct {
	// Summary is the first sentence or paragraph.
	Summary string

	// Body is the complete documentation text, including the summary.
	Body string

	// Deprecated is non-nil if the symbol is marked deprecated.
	Deprecated *string
}

// IsZero returns true if the documentation is empty.
func (d Documentation) IsZero() bool {
	return d.Summary == "" && d.Body == "" && d.Deprecated == nil
}

// Warning represents a non-fatal issue encountered while building metadata.
type Warning struct {
	// Code is a machine-readable warning identifier.
	Code string

	// Message is a human-readable description.
	Message string

	// TypeName is the type that triggered the warning, if applicable.
	TypeName string
}
