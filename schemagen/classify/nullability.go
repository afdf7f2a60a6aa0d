package classify

import "github.com/broady/schemakit/schemagen/meta"

// IsNullable reports whether values at the use site ct may be null.
//
// Explicit markers win over structural metadata, which wins over the
// category default. Strings count as values here.
func IsNullable(ct *meta.ContextualType, policy NullabilityPolicy) bool {
	if ct.Has(meta.AttrNotNull) {
		return false
	}
	if ct.Has(meta.AttrCanBeNull) {
		return true
	}
	switch ct.Nullability {
	case meta.NullabilityNullable:
		return true
	case meta.NullabilityNotNullable:
		return false
	}
	if ct.Type.Category == meta.CategoryValue || ct.Type.FullName() == "string" {
		return false
	}
	return policy != PolicyNotNull
}
