package meta

// Attribute is a metadata record attached to a type definition or a use site,
// with named argument values and an optional type payload.
type Attribute struct {
	Name string
	Args map[string]string

	// Type is the payload type, for attributes that name a type
	// (substitutions).
	Type *Type
}

// Arg returns the named argument value.
func (a Attribute) Arg(name string) string {
	return a.Args[name]
}

// Attribute names understood by the classifier and the property resolver.
const (
	// AttrNotNull marks a use site that never holds null.
	AttrNotNull = "NotNull"
	// AttrCanBeNull marks a use site that may hold null.
	AttrCanBeNull = "CanBeNull"

	// AttrSubstitute replaces the declared type. Type carries the substitute;
	// the optional "Nullable" argument ("true"/"false") forces nullability.
	AttrSubstitute = "Substitute"
	// AttrSchema states the JSON kind and format verbatim ("Type", "Format").
	AttrSchema = "Schema"
	// AttrConverter names a serialization converter ("Type").
	AttrConverter = "Converter"

	// AttrIgnore excludes a member. "Condition" is one of always, never,
	// nil, zero; empty means always.
	AttrIgnore = "Ignore"
	// AttrExtensionData marks a free-form container for unknown properties.
	AttrExtensionData = "ExtensionData"
	// AttrRename sets the serialized name ("Name").
	AttrRename = "Rename"
	// AttrRequired marks a required member.
	AttrRequired = "Required"
	// AttrMember marks a data contract member; "Required" may be "true".
	AttrMember = "Member"
	// AttrInclude opts a member in regardless of its accessors.
	AttrInclude = "Include"
	// AttrDescription carries a description ("Text").
	AttrDescription = "Description"

	// AttrDataContract on a type switches its members to opt-in.
	AttrDataContract = "DataContract"
	// AttrFlatten on a type lets derived members shadow base members.
	AttrFlatten = "Flatten"
)

// Ignore conditions.
const (
	IgnoreAlways = "always"
	IgnoreNever  = "never"
	IgnoreNil    = "nil"
	IgnoreZero   = "zero"
)

// StringEnum is the converter that writes enum values as their names.
// Providers attach it to enums whose underlying type is string.
type StringEnum struct{}

// StringEnumConverter is the fully qualified name of StringEnum.
const StringEnumConverter = "github.com/broady/schemakit/schemagen/meta.StringEnum"

// TextMarshalerConverter is the fully qualified name of encoding.TextMarshaler.
const TextMarshalerConverter = "encoding.TextMarshaler"

// NewAttribute returns an attribute with the given name and argument pairs.
// Odd trailing keys are ignored.
func NewAttribute(name string, kv ...string) Attribute {
	a := Attribute{Name: name}
	if len(kv) > 1 {
		a.Args = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			a.Args[kv[i]] = kv[i+1]
		}
	}
	return a
}

func findAttribute(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}
