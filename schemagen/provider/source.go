package provider

import (
	"cmp"
	"context"
	"fmt"
	"go/ast"
	"go/constant"
	"go/types"
	"reflect"
	"slices"
	"strings"

	"github.com/broady/schemakit/schemagen/meta"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/types/typeutil"
)

// SourceProvider builds metadata by analyzing Go source code.
// Unlike the ReflectionProvider it sees documentation comments, enum
// constants and the bodies of JSONSchemaAlias methods.
type SourceProvider struct{}

// SourceInputOptions configures source-based metadata extraction.
type SourceInputOptions struct {
	// Packages are the Go package paths to analyze.
	Packages []string

	// RootTypes are the type names to extract (e.g., "User", "CreateRequest").
	// If empty, all exported types in the packages are extracted.
	RootTypes []string

	// Dir is the directory packages are resolved from. Empty means the
	// current directory.
	Dir string
}

// BuildTypes analyzes source code and returns metadata for the root types.
// Types reachable from the roots are built on the way.
func (p *SourceProvider) BuildTypes(ctx context.Context, opts SourceInputOptions) (*Result, error) {
	if len(opts.Packages) == 0 {
		return nil, fmt.Errorf("no packages specified")
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     opts.Dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles |
			packages.NeedImports |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo,
	}

	pkgs, err := packages.Load(cfg, opts.Packages...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
		}
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found")
	}

	b := &sourceBuilder{
		pkgs:     pkgs,
		result:   &Result{},
		embeds: newEmbeddings(),
	}

	if len(opts.RootTypes) > 0 {
		for _, name := range opts.RootTypes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tn := b.lookupRoot(name)
			if tn == nil {
				return nil, fmt.Errorf("failed to extract root type %s: type not found in any package", name)
			}
			b.result.Roots = append(b.result.Roots, meta.Of(b.typeOf(tn.Type())))
		}
		b.embeds.promote(b.result)
		return b.result, nil
	}

	for _, pkg := range pkgs {
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || !tn.Exported() || tn.IsAlias() {
				continue
			}
			b.result.Roots = append(b.result.Roots, meta.Of(b.typeOf(tn.Type())))
		}
	}
	b.embeds.promote(b.result)
	return b.result, nil
}

// sourceBuilder maintains state during extraction.
type sourceBuilder struct {
	pkgs     []*packages.Package
	result   *Result
	types    typeutil.Map // types.Type -> *meta.Type, keyed by type identity
	embeds   *embeddings
}

func (b *sourceBuilder) lookupRoot(name string) *types.TypeName {
	for _, pkg := range b.pkgs {
		if tn, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName); ok {
			return tn
		}
	}
	return nil
}

// use returns the contextual type of a use site of t, with the same pointer
// rules as the reflection provider.
func (b *sourceBuilder) use(t types.Type) *meta.ContextualType {
	t = types.Unalias(t)
	ptr, ok := t.(*types.Pointer)
	if !ok {
		return meta.Of(b.typeOf(t))
	}
	elem := types.Unalias(ptr.Elem())
	for {
		p, ok := elem.(*types.Pointer)
		if !ok {
			break
		}
		elem = types.Unalias(p.Elem())
	}
	if sourceCategory(elem) != meta.CategoryValue {
		return &meta.ContextualType{Type: b.typeOf(elem), Nullability: meta.NullabilityNullable}
	}
	return meta.Of(b.typeOf(types.NewPointer(elem)))
}

// typeOf returns the metadata for t, building it on first use.
func (b *sourceBuilder) typeOf(t types.Type) *meta.Type {
	t = types.Unalias(t)
	if mt, ok := b.types.At(t).(*meta.Type); ok {
		return mt
	}

	mt := &meta.Type{Category: sourceCategory(t)}
	mt.Name, mt.Package = sourceTypeName(t)
	b.types.Set(t, mt)

	b.fill(mt, t)
	return mt
}

func (b *sourceBuilder) fill(mt *meta.Type, t types.Type) {
	named, _ := t.(*types.Named)
	if named != nil {
		if isNullWrapper(mt.Package, mt.Name) {
			if st, ok := named.Underlying().(*types.Struct); ok && st.NumFields() > 0 {
				mt.Nullable = true
				mt.GenericArguments = []*meta.ContextualType{b.use(st.Field(0).Type())}
				return
			}
		}
		if c, ok := isIter(mt.Package, mt.Name); ok {
			if yield := iterYield(named); yield != nil {
				mt.Capability = c
				for i := range yield.Params().Len() {
					mt.GenericArguments = append(mt.GenericArguments, b.use(yield.Params().At(i).Type()))
				}
				return
			}
		}
		mt.Doc = b.typeDoc(named.Obj())
		b.methods(mt, named)
		b.enum(mt, named)
	}

	switch u := t.Underlying().(type) {
	case *types.Basic:
		if u.Info()&types.IsComplex != 0 || u.Kind() == types.UnsafePointer {
			b.result.addWarning(WarnUnsupportedType, fmt.Sprintf("unsupported type: %s", t), mt.Name)
			return
		}
		if named != nil {
			mt.Underlying = b.typeOf(types.Typ[u.Kind()])
		}

	case *types.Pointer:
		mt.Nullable = true
		mt.GenericArguments = []*meta.ContextualType{b.use(u.Elem())}

	case *types.Slice:
		if isByte(u.Elem()) {
			if named != nil {
				mt.Underlying = b.typeOf(types.NewSlice(types.Typ[types.Uint8]))
			}
			return
		}
		mt.Capabilities = []meta.Capability{meta.CapabilityEnumerable}
		mt.GenericArguments = []*meta.ContextualType{b.use(u.Elem())}

	case *types.Array:
		mt.Capabilities = []meta.Capability{meta.CapabilityEnumerable}
		mt.GenericArguments = []*meta.ContextualType{b.use(u.Elem())}

	case *types.Map:
		mt.Capabilities = []meta.Capability{meta.CapabilityDictionary}
		mt.GenericArguments = []*meta.ContextualType{b.use(u.Key()), b.use(u.Elem())}

	case *types.Chan:
		if u.Dir() == types.SendOnly {
			b.result.addWarning(WarnUnsupportedType, fmt.Sprintf("send-only channel %s has no schema", t), mt.Name)
			return
		}
		mt.Capabilities = []meta.Capability{meta.CapabilityAsyncEnumerable}
		mt.GenericArguments = []*meta.ContextualType{b.use(u.Elem())}

	case *types.Struct:
		b.fillStruct(mt, named, u)

	case *types.Interface:

	default:
		b.result.addWarning(WarnUnsupportedType, fmt.Sprintf("unsupported type: %s", t), mt.Name)
	}
}

// methods attaches the converters and substitutions a type's methods imply.
func (b *sourceBuilder) methods(mt *meta.Type, named *types.Named) {
	if _, ok := named.Underlying().(*types.Interface); ok {
		return
	}
	mset := types.NewMethodSet(types.NewPointer(named))
	switch {
	case hasMarshaler(mset, "MarshalText"):
		mt.Attributes = append(mt.Attributes, converter(textMarshalerType))
	case hasMarshaler(mset, "MarshalJSON") && !isStandardLibrary(mt.Package):
		b.result.addWarning(WarnCustomMarshaler,
			fmt.Sprintf("type %s implements json.Marshaler, schema follows its Go structure", mt.Name), mt.Name)
	}
	if sel := mset.Lookup(nil, "JSONSchemaAlias"); sel != nil {
		if fn, ok := sel.Obj().(*types.Func); ok {
			b.alias(mt, fn)
		}
	}
}

// hasMarshaler checks for a method with the shape func() ([]byte, error).
func hasMarshaler(mset *types.MethodSet, name string) bool {
	sel := mset.Lookup(nil, name)
	if sel == nil {
		return false
	}
	sig, ok := sel.Type().(*types.Signature)
	return ok && sig.Params().Len() == 0 && sig.Results().Len() == 2
}

// alias reads the type returned by a JSONSchemaAlias method body.
func (b *sourceBuilder) alias(mt *meta.Type, fn *types.Func) {
	decl, pkg := b.funcDecl(fn)
	if decl == nil || decl.Body == nil {
		b.result.addWarning(WarnUnresolvedSubstitute,
			fmt.Sprintf("JSONSchemaAlias of %s is declared outside the loaded packages", mt.FullName()), mt.Name)
		return
	}

	var found types.Type
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		switch n := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.ReturnStmt:
			if len(n.Results) == 1 {
				found = pkg.TypesInfo.TypeOf(n.Results[0])
			}
		}
		return true
	})
	if found != nil {
		found = types.Default(found)
	}
	if found == nil || isEmptyInterface(found) || isUntypedNil(found) {
		b.result.addWarning(WarnUnresolvedSubstitute,
			fmt.Sprintf("JSONSchemaAlias of %s does not return a concrete type", mt.FullName()), mt.Name)
		return
	}
	mt.Attributes = append(mt.Attributes, meta.Attribute{Name: meta.AttrSubstitute, Type: b.typeOf(found)})
}

func (b *sourceBuilder) funcDecl(fn *types.Func) (*ast.FuncDecl, *packages.Package) {
	for _, pkg := range b.pkgs {
		if pkg.Types != fn.Pkg() {
			continue
		}
		for _, file := range pkg.Syntax {
			for _, decl := range file.Decls {
				if fd, ok := decl.(*ast.FuncDecl); ok && fd.Name.Pos() == fn.Pos() {
					return fd, pkg
				}
			}
		}
	}
	return nil, nil
}

// enum collects the constants of named in declaration order. Only types
// declared in the loaded packages are scanned.
func (b *sourceBuilder) enum(mt *meta.Type, named *types.Named) {
	basic, ok := named.Underlying().(*types.Basic)
	if !ok {
		return
	}
	pkg := b.loaded(named.Obj().Pkg())
	if pkg == nil {
		return
	}

	var consts []*types.Const
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		if c, ok := scope.Lookup(name).(*types.Const); ok && types.Identical(c.Type(), named) {
			consts = append(consts, c)
		}
	}
	if len(consts) == 0 {
		return
	}
	slices.SortFunc(consts, func(x, y *types.Const) int { return cmp.Compare(x.Pos(), y.Pos()) })

	mt.Enum = true
	for _, c := range consts {
		mt.EnumNames = append(mt.EnumNames, c.Name())
		mt.EnumValues = append(mt.EnumValues, constantValue(c.Val()))
	}
	if basic.Info()&types.IsString != 0 {
		mt.Attributes = append(mt.Attributes, converter(stringEnumType))
	}
}

func (b *sourceBuilder) loaded(p *types.Package) *packages.Package {
	if p == nil {
		return nil
	}
	for _, pkg := range b.pkgs {
		if pkg.Types == p {
			return pkg
		}
	}
	return nil
}

// constantValue converts a constant.Value to string, int64, float64 or bool.
func constantValue(v constant.Value) any {
	switch v.Kind() {
	case constant.String:
		return constant.StringVal(v)
	case constant.Int:
		i64, _ := constant.Int64Val(v)
		return i64
	case constant.Float:
		f64, _ := constant.Float64Val(v)
		return f64
	case constant.Bool:
		return constant.BoolVal(v)
	default:
		return v.String()
	}
}

// fillStruct builds the struct's own exported fields and records its
// embedded structs for promotion.
func (b *sourceBuilder) fillStruct(mt *meta.Type, named *types.Named, st *types.Struct) {
	var docs map[string]meta.Documentation
	if named != nil {
		docs = b.fieldDocs(named.Obj())
	}

	var own []meta.Member
	for i := range st.NumFields() {
		field := st.Field(i)
		tag := reflect.StructTag(st.Tag(i))
		if field.Name() == "_" {
			mt.Attributes = append(mt.Attributes, blankFieldAttributes(tag)...)
			continue
		}

		tags := parseFieldTags(tag)
		if field.Embedded() && !tags.named {
			if tags.skip {
				continue
			}
			embedded := derefAll(field.Type())
			if _, ok := embedded.Underlying().(*types.Struct); ok {
				b.embeds.add(mt, b.typeOf(embedded))
				continue
			}
		}

		if !field.Exported() {
			continue
		}
		m := b.member(field, tags)
		m.Doc = docs[field.Name()]
		own = append(own, m)
	}
	mt.Members = own
}

func (b *sourceBuilder) member(field *types.Var, tags fieldTags) meta.Member {
	ct := b.use(field.Type())
	ct.Attributes = append(ct.Attributes, tags.attrs...)
	for k := range ct.Attributes {
		name := substituteName(ct.Attributes[k])
		if name == "" {
			continue
		}
		if t := b.resolve(name, field.Pkg()); t != nil {
			ct.Attributes[k].Type = b.typeOf(t)
		} else {
			b.result.addWarning(WarnUnresolvedSubstitute,
				fmt.Sprintf("substitute type %q not found for field %s", name, field.Name()), field.Name())
		}
	}
	return meta.Member{
		Name:     field.Name(),
		Type:     ct,
		Field:    true,
		CanRead:  true,
		CanWrite: true,
	}
}

// resolve looks up a type name as written in a tag: a builtin, a type of
// the declaring package, or pkg.Type for one of its imports.
func (b *sourceBuilder) resolve(name string, pkg *types.Package) types.Type {
	if name == "[]byte" {
		return types.NewSlice(types.Typ[types.Uint8])
	}
	if tn, ok := types.Universe.Lookup(name).(*types.TypeName); ok {
		return tn.Type()
	}
	if pkg == nil {
		return nil
	}
	qualifier, typeName, qualified := cutLast(name, ".")
	if !qualified {
		if tn, ok := pkg.Scope().Lookup(name).(*types.TypeName); ok {
			return tn.Type()
		}
		return nil
	}
	for _, imp := range pkg.Imports() {
		if imp.Path() != qualifier && imp.Name() != qualifier {
			continue
		}
		if tn, ok := imp.Scope().Lookup(typeName).(*types.TypeName); ok {
			return tn.Type()
		}
	}
	return nil
}

// typeDoc returns the documentation of a type declared in a loaded package.
func (b *sourceBuilder) typeDoc(obj *types.TypeName) meta.Documentation {
	ts, doc := b.typeSpec(obj)
	if ts == nil {
		return meta.Documentation{}
	}
	return parseDocumentation(doc)
}

// fieldDocs returns the documentation of each field of a struct type
// declared in a loaded package, by field name.
func (b *sourceBuilder) fieldDocs(obj *types.TypeName) map[string]meta.Documentation {
	ts, _ := b.typeSpec(obj)
	if ts == nil {
		return nil
	}
	st, ok := ts.Type.(*ast.StructType)
	if !ok || st.Fields == nil {
		return nil
	}
	docs := make(map[string]meta.Documentation)
	for _, f := range st.Fields.List {
		cg := f.Doc
		if cg == nil {
			cg = f.Comment
		}
		if cg == nil {
			continue
		}
		doc := parseDocumentation(cg)
		for _, name := range f.Names {
			docs[name.Name] = doc
		}
	}
	return docs
}

// typeSpec finds the declaration of obj and its doc comment.
func (b *sourceBuilder) typeSpec(obj *types.TypeName) (*ast.TypeSpec, *ast.CommentGroup) {
	pkg := b.loaded(obj.Pkg())
	if pkg == nil {
		return nil, nil
	}
	pos := obj.Pos()
	for _, file := range pkg.Syntax {
		if file.Pos() > pos || file.End() < pos {
			continue
		}
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gd.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok && ts.Name.Pos() == pos {
					if ts.Doc != nil {
						return ts, ts.Doc
					}
					return ts, gd.Doc
				}
			}
		}
	}
	return nil, nil
}

// parseDocumentation parses a comment group into Documentation.
func parseDocumentation(cg *ast.CommentGroup) meta.Documentation {
	if cg == nil {
		return meta.Documentation{}
	}

	lines := strings.Split(strings.TrimSpace(cg.Text()), "\n")

	var deprecated *string
	for i, line := range lines {
		if strings.HasPrefix(line, "Deprecated:") {
			msg := strings.TrimSpace(strings.TrimPrefix(line, "Deprecated:"))
			deprecated = &msg
			lines = append(lines[:i], lines[i+1:]...)
			break
		}
	}

	// First non-empty line is the summary
	var summary string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			summary = trimmed
			break
		}
	}

	return meta.Documentation{
		Summary:    summary,
		Body:       strings.TrimSpace(strings.Join(lines, "\n")),
		Deprecated: deprecated,
	}
}

// sourceTypeName returns the name and package of t, spelled the way the
// reflection provider spells them.
func sourceTypeName(t types.Type) (name, pkg string) {
	switch t := t.(type) {
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() != nil {
			pkg = obj.Pkg().Path()
		}
		name = obj.Name()
		if args := t.TypeArgs(); args.Len() > 0 {
			parts := make([]string, args.Len())
			for i := range args.Len() {
				parts[i] = types.TypeString(args.At(i), (*types.Package).Path)
			}
			name += "[" + strings.Join(parts, ",") + "]"
		}
		return name, pkg
	case *types.Basic:
		return types.Typ[t.Kind()].Name(), ""
	case *types.Slice:
		if isByte(t.Elem()) {
			return "[]byte", ""
		}
	case *types.Interface:
		if t.Empty() {
			return "interface {}", ""
		}
	}
	return types.TypeString(t, (*types.Package).Name), ""
}

func sourceCategory(t types.Type) meta.Category {
	switch u := t.Underlying().(type) {
	case *types.Pointer, *types.Slice, *types.Map, *types.Chan, *types.Signature:
		return meta.CategoryReference
	case *types.Interface:
		return meta.CategoryInterface
	case *types.Basic:
		if u.Kind() == types.UnsafePointer {
			return meta.CategoryReference
		}
	}
	return meta.CategoryValue
}

// iterYield returns the yield function signature of iter.Seq or iter.Seq2.
func iterYield(named *types.Named) *types.Signature {
	sig, ok := named.Underlying().(*types.Signature)
	if !ok || sig.Params().Len() != 1 {
		return nil
	}
	yield, _ := sig.Params().At(0).Type().Underlying().(*types.Signature)
	return yield
}

func isByte(t types.Type) bool {
	basic, ok := types.Unalias(t).(*types.Basic)
	return ok && basic.Kind() == types.Uint8
}

func isEmptyInterface(t types.Type) bool {
	iface, ok := t.Underlying().(*types.Interface)
	return ok && iface.Empty()
}

func isUntypedNil(t types.Type) bool {
	basic, ok := t.(*types.Basic)
	return ok && basic.Kind() == types.UntypedNil
}

func derefAll(t types.Type) types.Type {
	t = types.Unalias(t)
	for {
		p, ok := t.(*types.Pointer)
		if !ok {
			return t
		}
		t = types.Unalias(p.Elem())
	}
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
