package provider

import (
	"context"
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/broady/schemakit/schemagen/meta"
)

// ReflectionProvider builds metadata using runtime reflection.
// Reflection sees neither documentation nor constants, so enum values must
// be registered through ReflectionInputOptions.Enums. Production use cases
// SHOULD prefer the SourceProvider for its richer feature set.
type ReflectionProvider struct{}

// ReflectionInputOptions configures reflection-based metadata extraction.
type ReflectionInputOptions struct {
	// RootTypes are the types to extract. Pointer root types are dereferenced.
	RootTypes []reflect.Type

	// Enums registers the values of enum types, in declaration order.
	Enums map[reflect.Type][]any
}

// schemaAliaser is implemented by types that want another type's schema.
type schemaAliaser interface {
	JSONSchemaAlias() any
}

var (
	textMarshalerIface = reflect.TypeFor[encoding.TextMarshaler]()
	jsonMarshalerIface = reflect.TypeFor[json.Marshaler]()
	aliaserIface       = reflect.TypeFor[schemaAliaser]()
)

// basicTypes are the unnamed builtin types, by kind.
var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Uintptr: reflect.TypeFor[uintptr](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
	reflect.String:  reflect.TypeFor[string](),
}

var bytesType = reflect.TypeFor[[]byte]()

// BuildTypes extracts metadata for the root types.
func (p *ReflectionProvider) BuildTypes(ctx context.Context, opts ReflectionInputOptions) (*Result, error) {
	if len(opts.RootTypes) == 0 {
		return nil, fmt.Errorf("no root types provided")
	}

	b := &reflectionBuilder{
		result:   &Result{},
		types:    make(map[reflect.Type]*meta.Type),
		embeds:   newEmbeddings(),
		byName:   make(map[string]reflect.Type),
		enums:    opts.Enums,
	}

	for _, t := range opts.RootTypes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		b.result.Roots = append(b.result.Roots, meta.Of(b.typeOf(t)))
	}
	b.resolveSubstitutes()
	b.embeds.promote(b.result)

	return b.result, nil
}

// reflectionBuilder maintains state during extraction.
type reflectionBuilder struct {
	result   *Result
	types    map[reflect.Type]*meta.Type
	order    []*meta.Type
	embeds   *embeddings
	byName   map[string]reflect.Type // named types seen, by full and simple name
	enums    map[reflect.Type][]any
}

// use returns the contextual type of a use site of t. A pointer to a value
// type is a nullable wrapper; a pointer to a reference type collapses to the
// element with a nullable state. Pointer chains collapse to one level.
func (b *reflectionBuilder) use(t reflect.Type) *meta.ContextualType {
	if t.Kind() != reflect.Pointer {
		return meta.Of(b.typeOf(t))
	}
	elem := t.Elem()
	for elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if reflectCategory(elem) != meta.CategoryValue {
		return &meta.ContextualType{Type: b.typeOf(elem), Nullability: meta.NullabilityNullable}
	}
	return meta.Of(b.typeOf(reflect.PointerTo(elem)))
}

// typeOf returns the metadata for t, building it on first use.
func (b *reflectionBuilder) typeOf(t reflect.Type) *meta.Type {
	if mt, ok := b.types[t]; ok {
		return mt
	}

	mt := &meta.Type{
		Name:     reflectTypeName(t),
		Package:  t.PkgPath(),
		Category: reflectCategory(t),
	}
	b.types[t] = mt
	b.order = append(b.order, mt)
	if t.Name() != "" {
		b.byName[mt.FullName()] = t
		if _, taken := b.byName[t.Name()]; !taken {
			b.byName[t.Name()] = t
		}
	}

	b.fill(mt, t)
	return mt
}

func (b *reflectionBuilder) fill(mt *meta.Type, t reflect.Type) {
	if isNullWrapper(mt.Package, mt.Name) && t.Kind() == reflect.Struct && t.NumField() > 0 {
		mt.Nullable = true
		mt.GenericArguments = []*meta.ContextualType{b.use(t.Field(0).Type)}
		return
	}
	if c, ok := isIter(mt.Package, mt.Name); ok && t.Kind() == reflect.Func && t.NumIn() == 1 {
		mt.Capability = c
		yield := t.In(0)
		for i := range yield.NumIn() {
			mt.GenericArguments = append(mt.GenericArguments, b.use(yield.In(i)))
		}
		return
	}

	b.methods(mt, t)
	if values, ok := b.enums[t]; ok {
		b.enum(mt, t, values)
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.String:
		if t.Name() != "" && t.PkgPath() != "" {
			mt.Underlying = b.typeOf(basicTypes[t.Kind()])
		}

	case reflect.Pointer:
		mt.Nullable = true
		mt.GenericArguments = []*meta.ContextualType{b.use(t.Elem())}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if t.Name() != "" {
				mt.Underlying = b.typeOf(bytesType)
			}
			return
		}
		mt.Capabilities = []meta.Capability{meta.CapabilityEnumerable}
		mt.GenericArguments = []*meta.ContextualType{b.use(t.Elem())}

	case reflect.Array:
		mt.Capabilities = []meta.Capability{meta.CapabilityEnumerable}
		mt.GenericArguments = []*meta.ContextualType{b.use(t.Elem())}

	case reflect.Map:
		mt.Capabilities = []meta.Capability{meta.CapabilityDictionary}
		mt.GenericArguments = []*meta.ContextualType{b.use(t.Key()), b.use(t.Elem())}

	case reflect.Chan:
		if t.ChanDir()&reflect.RecvDir == 0 {
			b.result.addWarning(WarnUnsupportedType, fmt.Sprintf("send-only channel %s has no schema", t), mt.Name)
			return
		}
		mt.Capabilities = []meta.Capability{meta.CapabilityAsyncEnumerable}
		mt.GenericArguments = []*meta.ContextualType{b.use(t.Elem())}

	case reflect.Struct:
		b.fillStruct(mt, t)

	case reflect.Interface:

	default:
		b.result.addWarning(WarnUnsupportedType, fmt.Sprintf("unsupported type: %s (kind: %s)", t, t.Kind()), mt.Name)
	}
}

// methods attaches the converters and substitutions a type's methods imply.
func (b *reflectionBuilder) methods(mt *meta.Type, t reflect.Type) {
	if t.Kind() == reflect.Interface || t.Kind() == reflect.Pointer {
		return
	}
	ptr := reflect.PointerTo(t)
	switch {
	case ptr.Implements(textMarshalerIface):
		mt.Attributes = append(mt.Attributes, converter(textMarshalerType))
	case ptr.Implements(jsonMarshalerIface) && !isStandardLibrary(t.PkgPath()):
		b.result.addWarning(WarnCustomMarshaler,
			fmt.Sprintf("type %s implements json.Marshaler, schema follows its Go structure", t), mt.Name)
	}
	if ptr.Implements(aliaserIface) {
		alias := reflect.New(t).Interface().(schemaAliaser).JSONSchemaAlias()
		if alias != nil {
			mt.Attributes = append(mt.Attributes, meta.Attribute{
				Name: meta.AttrSubstitute,
				Type: b.typeOf(reflect.TypeOf(alias)),
			})
		}
	}
}

func (b *reflectionBuilder) enum(mt *meta.Type, t reflect.Type, values []any) {
	mt.Enum = true
	for _, v := range values {
		rv := reflect.ValueOf(v)
		mt.EnumValues = append(mt.EnumValues, reflectEnumValue(rv))
		if s, ok := v.(fmt.Stringer); ok {
			mt.EnumNames = append(mt.EnumNames, s.String())
		} else {
			mt.EnumNames = append(mt.EnumNames, fmt.Sprint(v))
		}
	}
	if t.Kind() == reflect.String {
		mt.Attributes = append(mt.Attributes, converter(stringEnumType))
	}
}

// reflectEnumValue converts an enum value to string, int64, float64 or bool.
func reflectEnumValue(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	default:
		return fmt.Sprint(rv.Interface())
	}
}

// fillStruct builds the struct's own exported fields and records its
// embedded structs. Promoted members are prepended after the build.
func (b *reflectionBuilder) fillStruct(mt *meta.Type, t reflect.Type) {
	var own []meta.Member
	for i := range t.NumField() {
		field := t.Field(i)
		if field.Name == "_" {
			mt.Attributes = append(mt.Attributes, blankFieldAttributes(field.Tag)...)
			continue
		}

		tags := parseFieldTags(field.Tag)
		if field.Anonymous && !tags.named {
			if tags.skip {
				continue
			}
			embedded := field.Type
			for embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				b.embeds.add(mt, b.typeOf(embedded))
				continue
			}
		}

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}
		own = append(own, b.member(field.Name, field.Type, tags))
	}
	mt.Members = own
}

func (b *reflectionBuilder) member(name string, t reflect.Type, tags fieldTags) meta.Member {
	ct := b.use(t)
	ct.Attributes = append(ct.Attributes, tags.attrs...)
	return meta.Member{
		Name:     name,
		Type:     ct,
		Field:    true,
		CanRead:  true,
		CanWrite: true,
	}
}

// resolveSubstitutes resolves `as=` names once every reachable type is known.
func (b *reflectionBuilder) resolveSubstitutes() {
	for i := 0; i < len(b.order); i++ {
		mt := b.order[i]
		b.resolveIn(mt, mt.Attributes)
		for j := range mt.Members {
			if mt.Members[j].Depth == 0 {
				b.resolveIn(mt, mt.Members[j].Type.Attributes)
			}
		}
	}
}

func (b *reflectionBuilder) resolveIn(owner *meta.Type, attrs []meta.Attribute) {
	for k := range attrs {
		name := substituteName(attrs[k])
		if name == "" {
			continue
		}
		t, ok := b.lookup(name)
		if !ok {
			b.result.addWarning(WarnUnresolvedSubstitute,
				fmt.Sprintf("substitute type %q not found for %s", name, owner.FullName()), owner.Name)
			continue
		}
		attrs[k].Type = b.typeOf(t)
	}
}

// lookup resolves a builtin type name or the name of a type seen so far.
func (b *reflectionBuilder) lookup(name string) (reflect.Type, bool) {
	switch name {
	case "any", "interface{}":
		return reflect.TypeFor[any](), true
	case "[]byte":
		return bytesType, true
	}
	for _, t := range basicTypes {
		if t.Name() == name {
			return t, true
		}
	}
	t, ok := b.byName[name]
	return t, ok
}

func reflectTypeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 && t.Elem().Name() == "uint8" {
		return "[]byte"
	}
	return t.String()
}

func reflectCategory(t reflect.Type) meta.Category {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return meta.CategoryReference
	case reflect.Interface:
		return meta.CategoryInterface
	default:
		return meta.CategoryValue
	}
}
