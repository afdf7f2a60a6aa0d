// Package provider builds schema metadata from Go code. Providers translate Go
// types into the meta model: struct tags become attributes, pointers become
// nullable wrappers, maps, slices, receive channels and iterators become
// capabilities, and embedded structs become base types.
package provider

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"

	"github.com/broady/schemakit/schemagen/meta"
)

// Result is the metadata built for a set of root types.
type Result struct {
	// Roots are the requested types, in request order.
	Roots []*meta.ContextualType

	// Warnings are the non-fatal issues found while building.
	Warnings []meta.Warning
}

// Root returns the root type with the given simple or full name.
func (r *Result) Root(name string) *meta.ContextualType {
	for _, ct := range r.Roots {
		if ct.Type.Name == name || ct.Type.FullName() == name {
			return ct
		}
	}
	return nil
}

func (r *Result) addWarning(code, message, typeName string) {
	r.Warnings = append(r.Warnings, meta.Warning{
		Code:     code,
		Message:  message,
		TypeName: typeName,
	})
}

// Warning codes.
const (
	WarnUnsupportedType      = "UNSUPPORTED_TYPE"
	WarnCustomMarshaler      = "CUSTOM_MARSHALER"
	WarnUnresolvedSubstitute = "UNRESOLVED_SUBSTITUTE"
	WarnRecursiveEmbedding   = "RECURSIVE_EMBEDDING"
)

// Converter payload types attached to enums and text-marshaled types.
var (
	stringEnumType    = namedType(reflect.TypeFor[meta.StringEnum](), meta.CategoryValue)
	textMarshalerType = namedType(reflect.TypeFor[encoding.TextMarshaler](), meta.CategoryInterface)
)

func namedType(t reflect.Type, cat meta.Category) *meta.Type {
	return &meta.Type{Name: t.Name(), Package: t.PkgPath(), Category: cat}
}

func converter(t *meta.Type) meta.Attribute {
	return meta.Attribute{Name: meta.AttrConverter, Type: t}
}

// isNullWrapper reports whether pkg.name is one of the database/sql nullable
// value types (sql.Null[T], sql.NullString, ...).
func isNullWrapper(pkg, name string) bool {
	return pkg == "database/sql" && strings.HasPrefix(name, "Null")
}

// isIter reports whether pkg.name is iter.Seq or iter.Seq2, by generic name.
func isIter(pkg, name string) (meta.Capability, bool) {
	if pkg != "iter" {
		return "", false
	}
	switch genericName(name) {
	case "Seq":
		return meta.CapabilityEnumerable, true
	case "Seq2":
		return meta.CapabilityDictionary, true
	}
	return "", false
}

func genericName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}

// isStandardLibrary reports whether an import path belongs to the standard
// library: its first element has no dot.
func isStandardLibrary(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return path != "" && !strings.Contains(first, ".")
}

// embeddings records the embedded struct bases of each struct type. Members
// are promoted once every reachable type is built: a base reached through a
// field cycle is still incomplete while its embedder is filled.
type embeddings struct {
	bases map[*meta.Type][]*meta.Type
	order []*meta.Type
	state map[*meta.Type]promoteState
}

type promoteState int

const (
	promotePending promoteState = iota
	promoteActive
	promoteDone
)

func newEmbeddings() *embeddings {
	return &embeddings{
		bases: make(map[*meta.Type][]*meta.Type),
		state: make(map[*meta.Type]promoteState),
	}
}

// add records that mt embeds base, in field order.
func (e *embeddings) add(mt, base *meta.Type) {
	if _, seen := e.bases[mt]; !seen {
		e.order = append(e.order, mt)
	}
	e.bases[mt] = append(e.bases[mt], base)
}

// promote prepends the members of every recorded base to its embedder's own
// members, bases first. A type found again on its own embedding chain is
// reported and not promoted.
func (e *embeddings) promote(r *Result) {
	for _, mt := range e.order {
		e.finish(mt, r)
	}
}

func (e *embeddings) finish(mt *meta.Type, r *Result) {
	if e.state[mt] != promotePending {
		return
	}
	e.state[mt] = promoteActive

	var promoted []meta.Member
	for _, base := range e.bases[mt] {
		if e.state[base] == promoteActive {
			r.addWarning(WarnRecursiveEmbedding, fmt.Sprintf("type %s embeds itself", mt.FullName()), mt.Name)
			continue
		}
		e.finish(base, r)
		if mt.Base == nil {
			mt.Base = base
		}
		promoted = append(promoted, promoteMembers(base)...)
	}
	if len(promoted) > 0 {
		mt.Members = append(promoted, mt.Members...)
	}
	e.state[mt] = promoteDone
}

func promoteMembers(base *meta.Type) []meta.Member {
	out := make([]meta.Member, len(base.Members))
	for i, m := range base.Members {
		m.Depth++
		out[i] = m
	}
	return out
}

// substituteName returns the unresolved type name of a Substitute attribute.
func substituteName(a meta.Attribute) string {
	if a.Name != meta.AttrSubstitute || a.Type != nil {
		return ""
	}
	return a.Arg("Name")
}
