package classify

import (
	"strconv"

	"github.com/broady/schemakit/schemagen/meta"
)

// maxDepth bounds substitution chains and wrapper unwrapping.
// Well-formed metadata never goes deeper than one level of unwrapping.
const maxDepth = 8

// Options configures a Classifier.
type Options struct {
	// Policy applies to reference types without nullability metadata.
	Policy NullabilityPolicy

	// Dialect selects the file representation of binary types.
	Dialect Dialect
}

// Classifier maps contextual types to descriptions.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	opts  Options
	steps []step
}

// step is one entry of the precedence chain. It reports whether it matched.
type step struct {
	name string
	fn   func(c *Classifier, ct *meta.ContextualType, nullable bool, depth int) (Description, bool)
}

// New returns a Classifier with the given options.
func New(opts Options) *Classifier {
	if opts.Dialect == "" {
		opts.Dialect = DialectJSONSchema
	}
	return &Classifier{opts: opts, steps: defaultSteps()}
}

func defaultSteps() []step {
	return []step{
		{"substitute", (*Classifier).substitute},
		{"schema", (*Classifier).explicitSchema},
		{"enum", (*Classifier).enum},
		{"scalar", (*Classifier).scalar},
		{"binary", (*Classifier).binary},
		{"placeholder", (*Classifier).placeholder},
		{"nullable", (*Classifier).unwrap},
		{"dictionary", (*Classifier).dictionary},
		{"sequence", (*Classifier).sequence},
	}
}

// Options returns the classifier configuration.
func (c *Classifier) Options() Options {
	return c.opts
}

// Classify returns the description of ct. It never fails: unrecognized
// shapes are objects.
func (c *Classifier) Classify(ct *meta.ContextualType) Description {
	return c.classify(ct, 0)
}

// IsNullable reports the nullability of ct under the classifier's policy.
func (c *Classifier) IsNullable(ct *meta.ContextualType) bool {
	return IsNullable(ct, c.opts.Policy)
}

func (c *Classifier) classify(ct *meta.ContextualType, depth int) Description {
	nullable := IsNullable(ct, c.opts.Policy)
	for _, s := range c.steps {
		if d, ok := s.fn(c, ct, nullable, depth); ok {
			return d
		}
	}
	return Description{Kind: KindObject, IsNullable: nullable}
}

func (c *Classifier) substitute(ct *meta.ContextualType, _ bool, depth int) (Description, bool) {
	attr, ok := ct.Lookup(meta.AttrSubstitute)
	if !ok || attr.Type == nil || depth >= maxDepth {
		return Description{}, false
	}
	sub := &meta.ContextualType{
		Type:        attr.Type,
		Attributes:  without(ct.Attributes, meta.AttrSubstitute),
		Nullability: ct.Nullability,
	}
	d := c.classify(sub, depth+1)
	if v, err := strconv.ParseBool(attr.Arg("Nullable")); err == nil {
		d.IsNullable = v
	}
	return d, true
}

func (c *Classifier) explicitSchema(ct *meta.ContextualType, nullable bool, depth int) (Description, bool) {
	attr, ok := ct.Lookup(meta.AttrSchema)
	if !ok {
		return Description{}, false
	}
	format := attr.Arg("Format")
	if name := attr.Arg("Type"); name != "" {
		kind, ok := ParseKind(name)
		if !ok {
			return Description{}, false
		}
		if kind == KindNone {
			format = ""
		}
		return Description{Kind: kind, Format: format, IsNullable: nullable}, true
	}
	if format == "" {
		return Description{}, false
	}

	// Format only: keep the classified kind.
	d := c.classify(stripped(ct, meta.AttrSchema), depth)
	if d.Kind != KindNone {
		d.Format = format
	}
	d.IsNullable = nullable
	return d, true
}

func (c *Classifier) enum(ct *meta.ContextualType, nullable bool, _ int) (Description, bool) {
	if !ct.Type.Enum {
		return Description{}, false
	}
	if hasStringEnumConverter(ct) {
		return Description{Kind: KindString, IsNullable: nullable, IsEnumAsString: true}, true
	}
	return Description{Kind: KindInteger, IsNullable: nullable}, true
}

func (c *Classifier) scalar(ct *meta.ContextualType, nullable bool, _ int) (Description, bool) {
	name := ct.Type.FullName()
	s, ok := lookupScalar(name)
	// Placeholders and binaries are matched by name in later steps, even
	// when their underlying type is a scalar.
	if !ok && ct.Type.Underlying != nil && !placeholders[name] && !binaries[name] {
		s, ok = lookupScalar(ct.Type.Underlying.FullName())
	}
	if !ok {
		return Description{}, false
	}
	return Description{Kind: s.kind, Format: s.format, IsNullable: nullable}, true
}

func (c *Classifier) binary(ct *meta.ContextualType, nullable bool, _ int) (Description, bool) {
	if !binaries[ct.Type.FullName()] {
		return Description{}, false
	}
	if c.opts.Dialect == DialectSwagger2 {
		return Description{Kind: KindFile, IsNullable: nullable}, true
	}
	return Description{Kind: KindString, Format: FormatBinary, IsNullable: nullable}, true
}

func (c *Classifier) placeholder(ct *meta.ContextualType, nullable bool, _ int) (Description, bool) {
	if !placeholders[ct.Type.FullName()] {
		return Description{}, false
	}
	return Description{Kind: KindNone, IsNullable: nullable}, true
}

func (c *Classifier) unwrap(ct *meta.ContextualType, _ bool, depth int) (Description, bool) {
	inner, ok := Unwrap(ct)
	if !ok || depth >= maxDepth {
		return Description{}, false
	}
	d := c.classify(inner, depth+1)
	d.IsNullable = true
	return d, true
}

func (c *Classifier) dictionary(ct *meta.ContextualType, nullable bool, _ int) (Description, bool) {
	if !ct.Type.Introduces(meta.CapabilityDictionary) {
		return Description{}, false
	}
	return Description{Kind: KindObject, IsNullable: nullable}, true
}

func (c *Classifier) sequence(ct *meta.ContextualType, nullable bool, _ int) (Description, bool) {
	if !ct.Type.Introduces(meta.CapabilityEnumerable) && !ct.Type.Introduces(meta.CapabilityAsyncEnumerable) {
		return Description{}, false
	}
	return Description{Kind: KindArray, IsNullable: nullable}, true
}

// Unwrap returns the value type wrapped by a nullable wrapper, carrying the
// wrapper's contextual attributes ahead of the argument's own.
func Unwrap(ct *meta.ContextualType) (*meta.ContextualType, bool) {
	args := ct.GenericArguments()
	if !ct.Type.Nullable || len(args) != 1 || args[0] == nil || args[0].Type == nil {
		return nil, false
	}
	if args[0].Type.Category != meta.CategoryValue {
		return nil, false
	}
	attrs := make([]meta.Attribute, 0, len(ct.Attributes)+len(args[0].Attributes))
	attrs = append(attrs, ct.Attributes...)
	attrs = append(attrs, args[0].Attributes...)
	return &meta.ContextualType{
		Type:        args[0].Type,
		Attributes:  attrs,
		Nullability: args[0].Nullability,
	}, true
}

// IsDictionary reports whether ct classifies through the dictionary step.
func IsDictionary(ct *meta.ContextualType) bool {
	return ct.Type.Introduces(meta.CapabilityDictionary)
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

// stripped returns a copy of ct with the named attribute removed from both
// the use site and the type definition.
func stripped(ct *meta.ContextualType, name string) *meta.ContextualType {
	out := &meta.ContextualType{
		Type:        ct.Type,
		Attributes:  without(ct.Attributes, name),
		Nullability: ct.Nullability,
	}
	if _, ok := ct.Type.Attribute(name); ok {
		t := *ct.Type
		t.Attributes = without(t.Attributes, name)
		out.Type = &t
	}
	return out
}
