// Package property decides which members of an object type become schema
// properties, under which names, and whether they are required.
package property

import (
	"fmt"

	"github.com/broady/schemakit/schemagen/classify"
	"github.com/broady/schemakit/schemagen/meta"
	"github.com/broady/schemakit/schemagen/naming"
)

// Options configures a Resolver.
type Options struct {
	// Flatten lets later (more derived) members replace earlier members with
	// the same serialized name on every type. Types can also opt in with a
	// Flatten attribute.
	Flatten bool

	// OptIn keeps only members marked with Member or Include on every type.
	// Types can also opt in with a DataContract attribute.
	OptIn bool

	// Naming converts raw member names. Nil keeps them verbatim.
	Naming naming.Policy
}

// Decision is an accepted member.
type Decision struct {
	// Name is the serialized property name.
	Name string

	Required   bool
	IsNullable bool

	// Description is the classification of the member type.
	Description classify.Description

	// Member is the member the decision was made for.
	Member *meta.Member
}

// DuplicatePropertyError reports two members of one type resolving to the
// same property name without flattening.
type DuplicatePropertyError struct {
	Type     string
	Property string
}

func (e *DuplicatePropertyError) Error() string {
	return fmt.Sprintf("duplicate property %q on type %s", e.Property, e.Type)
}

// Resolver produces member decisions. It is safe for concurrent use.
type Resolver struct {
	classifier *classify.Classifier
	opts       Options
}

// New returns a Resolver that classifies members with c.
func New(c *classify.Classifier, opts Options) *Resolver {
	return &Resolver{classifier: c, opts: opts}
}

// Classifier returns the classifier members are described with.
func (r *Resolver) Classifier() *classify.Classifier {
	return r.classifier
}

// Resolve returns the decisions for the members of ct's type in member
// order. It fails on the first duplicate name when flattening is off.
func (r *Resolver) Resolve(ct *meta.ContextualType) ([]Decision, error) {
	t := ct.Type
	optIn := r.opts.OptIn || hasTypeAttribute(t, meta.AttrDataContract)
	flatten := r.opts.Flatten || hasTypeAttribute(t, meta.AttrFlatten) || t.Category == meta.CategoryInterface

	var out []Decision
	index := make(map[string]int, len(t.Members))
	for i := range t.Members {
		m := &t.Members[i]
		if !visible(m, optIn) || ignored(m) {
			continue
		}
		d := r.decide(m)
		if j, dup := index[d.Name]; dup {
			if !flatten {
				return nil, &DuplicatePropertyError{Type: t.FullName(), Property: d.Name}
			}
			// The derived member takes the later position.
			out = append(out[:j], out[j+1:]...)
			for k := j; k < len(out); k++ {
				index[out[k].Name] = k
			}
		}
		index[d.Name] = len(out)
		out = append(out, d)
	}
	return out, nil
}

// Name returns the serialized name of m.
func (r *Resolver) Name(m *meta.Member) string {
	if a, ok := m.Attribute(meta.AttrRename); ok && a.Arg("Name") != "" {
		return a.Arg("Name")
	}
	if r.opts.Naming != nil {
		return r.opts.Naming.Convert(m.Name)
	}
	return m.Name
}

func (r *Resolver) decide(m *meta.Member) Decision {
	desc := r.classifier.Classify(m.Type)
	required := IsRequired(m)
	return Decision{
		Name:        r.Name(m),
		Required:    required,
		IsNullable:  desc.IsNullable && !required,
		Description: desc,
		Member:      m,
	}
}

// IsRequired reports whether m carries a Required marker or a Member marker
// that declares itself required.
func IsRequired(m *meta.Member) bool {
	if m.Has(meta.AttrRequired) {
		return true
	}
	a, ok := m.Attribute(meta.AttrMember)
	return ok && a.Arg("Required") == "true"
}

// ExtensionData returns the first readable member of t marked as an
// extension data container, or nil.
func ExtensionData(t *meta.Type) *meta.Member {
	for i := range t.Members {
		m := &t.Members[i]
		if m.Has(meta.AttrExtensionData) && !m.Static && m.CanRead {
			return m
		}
	}
	return nil
}

func visible(m *meta.Member, optIn bool) bool {
	if m.Static || !m.CanRead {
		return false
	}
	if optIn {
		return m.Has(meta.AttrMember) || m.Has(meta.AttrInclude)
	}
	return m.Field || m.CanWrite || m.Has(meta.AttrInclude)
}

func ignored(m *meta.Member) bool {
	if m.Has(meta.AttrExtensionData) {
		return true
	}
	a, ok := m.Attribute(meta.AttrIgnore)
	if !ok {
		return false
	}
	switch a.Arg("Condition") {
	case "", meta.IgnoreAlways:
		return true
	}
	return false
}

func hasTypeAttribute(t *meta.Type, name string) bool {
	_, ok := t.Attribute(name)
	return ok
}
