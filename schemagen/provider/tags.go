package provider

import (
	"reflect"
	"strings"

	"github.com/broady/schemakit/schemagen/meta"
)

// fieldTags is the metadata carried by a struct field's tags.
type fieldTags struct {
	// attrs are the member attributes, jsonschema tag first.
	attrs []meta.Attribute

	// typeAttrs are the type-level attributes from a blank (_) field.
	typeAttrs []meta.Attribute

	// named is set when the json tag gives the field a name. Embedded
	// structs with a name are fields, not bases.
	named bool

	// skip is set for json:"-".
	skip bool
}

// parseFieldTags reads the json, jsonschema and validate tags.
//
// The jsonschema tag is a comma-separated list of required, nullable,
// notnull, type=, format=, ignore[=condition], extension, as=, converter=,
// include, member[=required], flatten, datacontract and description=.
// description= must come last; its value runs to the end of the tag.
// Of the validate tag only the required rule is read.
func parseFieldTags(tag reflect.StructTag) fieldTags {
	var ft fieldTags
	if v, ok := tag.Lookup("jsonschema"); ok {
		ft.parseSchemaTag(v)
	}
	if v, ok := tag.Lookup("json"); ok {
		ft.parseJSONTag(v)
	}
	if v, ok := tag.Lookup("validate"); ok {
		for _, rule := range strings.Split(v, ",") {
			if rule == "required" {
				ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrRequired))
				break
			}
		}
	}
	return ft
}

func (ft *fieldTags) parseJSONTag(v string) {
	parts := strings.Split(v, ",")
	switch {
	case parts[0] == "-" && len(parts) == 1:
		ft.skip = true
		ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrIgnore, "Condition", meta.IgnoreAlways))
		return
	case parts[0] != "":
		ft.named = true
		ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrRename, "Name", parts[0]))
	}
	for _, opt := range parts[1:] {
		switch opt {
		case "omitempty", "omitzero":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrIgnore, "Condition", meta.IgnoreZero))
		case "string":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrSchema, "Type", "string"))
		case "inline":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrExtensionData))
		}
	}
}

func (ft *fieldTags) parseSchemaTag(v string) {
	var kind, format string
	for rest := v; rest != ""; {
		var part string
		part, rest, _ = strings.Cut(rest, ",")
		key, val, _ := strings.Cut(strings.TrimSpace(part), "=")

		switch key {
		case "required":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrRequired))
		case "nullable":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrCanBeNull))
		case "notnull":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrNotNull))
		case "type":
			kind = val
		case "format":
			format = val
		case "ignore":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrIgnore, "Condition", val))
		case "extension":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrExtensionData))
		case "as":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrSubstitute, "Name", val))
		case "converter":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrConverter, "Type", val))
		case "include":
			ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrInclude))
		case "member":
			if val == "required" {
				ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrMember, "Required", "true"))
			} else {
				ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrMember))
			}
		case "flatten":
			ft.typeAttrs = append(ft.typeAttrs, meta.NewAttribute(meta.AttrFlatten))
		case "datacontract":
			ft.typeAttrs = append(ft.typeAttrs, meta.NewAttribute(meta.AttrDataContract))
		case "description":
			if rest != "" {
				val += "," + rest
			}
			rest = ""
			a := meta.NewAttribute(meta.AttrDescription, "Text", val)
			ft.attrs = append(ft.attrs, a)
			ft.typeAttrs = append(ft.typeAttrs, a)
		}
	}
	if kind != "" || format != "" {
		ft.attrs = append(ft.attrs, meta.NewAttribute(meta.AttrSchema, "Type", kind, "Format", format))
	}
}

// blankFieldAttributes collects the type-level attributes declared on blank
// fields, e.g. `_ struct{} jsonschema:"datacontract,flatten"`.
func blankFieldAttributes(tag reflect.StructTag) []meta.Attribute {
	return parseFieldTags(tag).typeAttrs
}
