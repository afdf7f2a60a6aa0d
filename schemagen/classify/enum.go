package classify

import (
	"strings"

	"github.com/broady/schemakit/schemagen/meta"
)

// stringEnumConverters are the converters that write enum values as names.
// They are matched by name, simple or fully qualified.
var stringEnumConverters = []string{
	meta.TextMarshalerConverter,
	meta.StringEnumConverter,
}

// IsStringEnumConverter reports whether name, simple or fully qualified,
// identifies a converter that writes enum values as strings.
func IsStringEnumConverter(name string) bool {
	if name == "" {
		return false
	}
	simple := simpleName(name)
	for _, known := range stringEnumConverters {
		if name == known || simple == simpleName(known) {
			return true
		}
	}
	return false
}

// hasStringEnumConverter checks every converter attached to ct, contextual
// ones first.
func hasStringEnumConverter(ct *meta.ContextualType) bool {
	for _, attrs := range [][]meta.Attribute{ct.Attributes, ct.Type.Attributes} {
		for _, a := range attrs {
			if a.Name == meta.AttrConverter && IsStringEnumConverter(converterName(a)) {
				return true
			}
		}
	}
	return false
}

func converterName(a meta.Attribute) string {
	if a.Type != nil {
		return a.Type.FullName()
	}
	return a.Arg("Type")
}

// simpleName strips the package path: "encoding.TextMarshaler" and
// "TextMarshaler" both yield "TextMarshaler".
func simpleName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
