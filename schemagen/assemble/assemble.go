// Package assemble turns classified types into JSON Schema documents.
//
// The Assembler asks the classifier for the description of every type it
// meets and the property resolver for the members of every object. Named
// struct types are emitted once under $defs and referenced with $ref, which
// terminates recursive types.
package assemble

import (
	"fmt"
	"strings"

	"github.com/broady/schemakit/schemagen/classify"
	"github.com/broady/schemakit/schemagen/meta"
	"github.com/broady/schemakit/schemagen/property"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// WarnInterfaceType is reported for interface types, which have no schema
// beyond "any value".
const WarnInterfaceType = "INTERFACE_TYPE"

// maxIndirection bounds the substitution and wrapper chain followed when
// looking for the structure behind a description.
const maxIndirection = 8

// Assembler builds schema documents. It keeps the definitions of the
// document being built, so a single Assembler must not be shared between
// goroutines.
type Assembler struct {
	classifier *classify.Classifier
	resolver   *property.Resolver

	defs     jsonschema.Definitions
	names    map[*meta.Type]string
	warnings []meta.Warning
	warned   map[*meta.Type]bool
}

// New returns an Assembler that classifies with c and resolves members with r.
func New(c *classify.Classifier, r *property.Resolver) *Assembler {
	return &Assembler{
		classifier: c,
		resolver:   r,
		warned:     make(map[*meta.Type]bool),
	}
}

// Warnings returns the warnings collected so far, across documents.
func (a *Assembler) Warnings() []meta.Warning {
	return a.warnings
}

// Schema builds the document for a root type. Named struct roots are
// referenced from the document root, the way invopop/jsonschema lays out
// reflected documents.
func (a *Assembler) Schema(root *meta.ContextualType) (*jsonschema.Schema, error) {
	a.defs = make(jsonschema.Definitions)
	a.names = make(map[*meta.Type]string)

	doc, err := a.schema(root, a.classifier.Classify(root))
	if err != nil {
		return nil, err
	}
	if a.classifier.Options().Dialect == classify.DialectJSONSchema {
		doc.Version = jsonschema.Version
	}
	if len(a.defs) > 0 {
		doc.Definitions = a.defs
	}
	return doc, nil
}

// target is the structure behind a use site once substitutions and
// nullable wrappers are followed.
type target struct {
	ct       *meta.ContextualType
	explicit bool // a Schema attribute fixed the kind and format
}

func resolveTarget(ct *meta.ContextualType) target {
	for range maxIndirection {
		if sub, ok := ct.Lookup(meta.AttrSubstitute); ok && sub.Type != nil {
			ct = &meta.ContextualType{
				Type:        sub.Type,
				Attributes:  without(ct.Attributes, meta.AttrSubstitute),
				Nullability: ct.Nullability,
			}
			continue
		}
		if _, ok := ct.Lookup(meta.AttrSchema); ok {
			return target{ct: ct, explicit: true}
		}
		if inner, ok := classify.Unwrap(ct); ok {
			ct = inner
			continue
		}
		break
	}
	return target{ct: ct}
}

func without(attrs []meta.Attribute, name string) []meta.Attribute {
	out := make([]meta.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a.Name != name {
			out = append(out, a)
		}
	}
	return out
}

// schema builds the schema of ct for the description d.
func (a *Assembler) schema(ct *meta.ContextualType, d classify.Description) (*jsonschema.Schema, error) {
	tgt := resolveTarget(ct)
	s, err := a.body(tgt, d)
	if err != nil {
		return nil, err
	}
	if d.IsNullable && d.Kind != classify.KindNone {
		s = a.nullable(s)
	}
	return s, nil
}

func (a *Assembler) body(tgt target, d classify.Description) (*jsonschema.Schema, error) {
	t := tgt.ct.Type
	switch d.Kind {
	case classify.KindNone:
		return &jsonschema.Schema{}, nil

	case classify.KindString, classify.KindInteger, classify.KindNumber, classify.KindBoolean, classify.KindFile:
		s := &jsonschema.Schema{Type: d.Kind.String(), Format: d.Format}
		if t.Enum && !tgt.explicit {
			s.Enum = enumValues(t, d)
		}
		return s, nil

	case classify.KindArray:
		s := &jsonschema.Schema{Type: "array"}
		if tgt.explicit {
			return s, nil
		}
		if args := t.GenericArguments; len(args) > 0 {
			items, err := a.use(args[0])
			if err != nil {
				return nil, err
			}
			s.Items = items
		}
		return s, nil
	}

	// Objects.
	if tgt.explicit {
		return &jsonschema.Schema{Type: "object"}, nil
	}
	if classify.IsDictionary(tgt.ct) {
		s := &jsonschema.Schema{Type: "object"}
		if args := t.GenericArguments; len(args) > 0 {
			values, err := a.use(args[len(args)-1])
			if err != nil {
				return nil, err
			}
			s.AdditionalProperties = values
		}
		return s, nil
	}
	if t.Category == meta.CategoryInterface && len(t.Members) == 0 {
		a.warn(t, WarnInterfaceType, fmt.Sprintf("interface type %s has no schema, any value is accepted", t.FullName()))
		return &jsonschema.Schema{}, nil
	}
	if t.Package == "" {
		return a.object(tgt.ct)
	}
	return a.ref(t)
}

// use builds the schema of a generic argument.
func (a *Assembler) use(ct *meta.ContextualType) (*jsonschema.Schema, error) {
	return a.schema(ct, a.classifier.Classify(ct))
}

// ref returns a reference to the definition of t, building it on first use.
func (a *Assembler) ref(t *meta.Type) (*jsonschema.Schema, error) {
	name, ok := a.names[t]
	if !ok {
		name = a.defName(t)
		a.names[t] = name
		a.defs[name] = &jsonschema.Schema{}

		s, err := a.object(meta.Of(t))
		if err != nil {
			return nil, err
		}
		a.defs[name] = s
	}
	return &jsonschema.Schema{Ref: "#/$defs/" + name}, nil
}

// object builds the inline schema of an object type from its resolved
// members.
func (a *Assembler) object(ct *meta.ContextualType) (*jsonschema.Schema, error) {
	decisions, err := a.resolver.Resolve(ct)
	if err != nil {
		return nil, err
	}

	s := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}
	for _, d := range decisions {
		desc := d.Description
		desc.IsNullable = d.IsNullable
		ps, err := a.schema(d.Member.Type, desc)
		if err != nil {
			return nil, fmt.Errorf("property %s of %s: %w", d.Name, ct.Type.FullName(), err)
		}
		describe(ps, d.Member.Type.Attributes, d.Member.Doc)
		s.Properties.Set(d.Name, ps)
		if d.Required {
			s.Required = append(s.Required, d.Name)
		}
	}
	if property.ExtensionData(ct.Type) != nil {
		s.AdditionalProperties = jsonschema.TrueSchema
	}
	describe(s, ct.Type.Attributes, ct.Type.Doc)
	return s, nil
}

// nullable applies the dialect's encoding of "or null" to s.
func (a *Assembler) nullable(s *jsonschema.Schema) *jsonschema.Schema {
	switch a.classifier.Options().Dialect {
	case classify.DialectOpenAPI3:
		return withExtra(s, "nullable")
	case classify.DialectSwagger2:
		return withExtra(s, "x-nullable")
	default:
		return &jsonschema.Schema{OneOf: []*jsonschema.Schema{s, {Type: "null"}}}
	}
}

// withExtra sets key to true on s. References cannot carry siblings in the
// OpenAPI dialects, so they are wrapped in allOf first.
func withExtra(s *jsonschema.Schema, key string) *jsonschema.Schema {
	if s.Ref != "" {
		s = &jsonschema.Schema{AllOf: []*jsonschema.Schema{s}}
	}
	if s.Extras == nil {
		s.Extras = make(map[string]any)
	}
	s.Extras[key] = true
	return s
}

// describe sets the description and deprecation of s from a Description
// attribute or the documentation.
func describe(s *jsonschema.Schema, attrs []meta.Attribute, doc meta.Documentation) {
	for _, attr := range attrs {
		if attr.Name == meta.AttrDescription {
			s.Description = attr.Arg("Text")
			break
		}
	}
	if s.Description == "" {
		s.Description = doc.Body
	}
	if doc.Deprecated != nil {
		s.Deprecated = true
	}
}

// enumValues returns the values to list for an enum: the declared values,
// or the constant names when the values are written as strings but are not
// strings themselves.
func enumValues(t *meta.Type, d classify.Description) []any {
	if d.Kind == classify.KindString && len(t.EnumNames) == len(t.EnumValues) {
		for _, v := range t.EnumValues {
			if _, ok := v.(string); !ok {
				out := make([]any, len(t.EnumNames))
				for i, name := range t.EnumNames {
					out[i] = name
				}
				return out
			}
		}
	}
	return append([]any(nil), t.EnumValues...)
}

// defName returns the definition name of t: its simple name, qualified by
// its package when another type already took the simple name.
func (a *Assembler) defName(t *meta.Type) string {
	name := sanitizeTypeName(t.Name)
	if _, taken := a.defs[name]; !taken {
		return name
	}
	pkg := t.Package
	if i := strings.LastIndexByte(pkg, '/'); i >= 0 {
		pkg = pkg[i+1:]
	}
	qualified := sanitizeTypeName(pkg + "." + t.Name)
	for i := 2; ; i++ {
		if _, taken := a.defs[qualified]; !taken {
			return qualified
		}
		qualified = fmt.Sprintf("%s_%d", sanitizeTypeName(pkg+"."+t.Name), i)
	}
}

// sanitizeTypeName turns a Go type name, possibly a generic instantiation,
// into a definition name.
func sanitizeTypeName(name string) string {
	result := strings.ReplaceAll(name, ".", "_")
	result = strings.ReplaceAll(result, "/", "_")
	result = strings.ReplaceAll(result, "[", "_")
	result = strings.ReplaceAll(result, "]", "")
	result = strings.ReplaceAll(result, ",", "_")
	result = strings.ReplaceAll(result, " ", "")
	result = strings.ReplaceAll(result, "*", "Ptr")
	return result
}

func (a *Assembler) warn(t *meta.Type, code, message string) {
	if a.warned[t] {
		return
	}
	a.warned[t] = true
	a.warnings = append(a.warnings, meta.Warning{Code: code, Message: message, TypeName: t.Name})
}
