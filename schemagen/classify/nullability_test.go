package classify

import (
	"testing"

	"github.com/broady/schemakit/schemagen/meta"
)

func TestIsNullable(t *testing.T) {
	ref := &meta.Type{Name: "[]int", Category: meta.CategoryReference}
	val := builtin("int")
	str := builtin("string")

	notNull := meta.NewAttribute(meta.AttrNotNull)
	canBeNull := meta.NewAttribute(meta.AttrCanBeNull)

	tests := []struct {
		name   string
		ct     *meta.ContextualType
		policy NullabilityPolicy
		want   bool
	}{
		{"reference default", meta.Of(ref), PolicyNullable, true},
		{"reference notnull policy", meta.Of(ref), PolicyNotNull, false},
		{"value", meta.Of(val), PolicyNullable, false},
		{"string", meta.Of(str), PolicyNullable, false},
		{"interface", meta.Of(&meta.Type{Name: "error", Category: meta.CategoryInterface}), PolicyNullable, true},
		{"not-null marker wins", &meta.ContextualType{Type: ref, Attributes: []meta.Attribute{notNull, canBeNull}}, PolicyNullable, false},
		{"can-be-null marker", &meta.ContextualType{Type: val, Attributes: []meta.Attribute{canBeNull}}, PolicyNotNull, true},
		{"marker beats state", &meta.ContextualType{Type: ref, Attributes: []meta.Attribute{notNull}, Nullability: meta.NullabilityNullable}, PolicyNullable, false},
		{"nullable state", &meta.ContextualType{Type: str, Nullability: meta.NullabilityNullable}, PolicyNotNull, true},
		{"not-nullable state", &meta.ContextualType{Type: ref, Nullability: meta.NullabilityNotNullable}, PolicyNullable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNullable(tt.ct, tt.policy); got != tt.want {
				t.Errorf("IsNullable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    NullabilityPolicy
		wantErr bool
	}{
		{"", PolicyNullable, false},
		{"nullable", PolicyNullable, false},
		{"notnull", PolicyNotNull, false},
		{"maybe", PolicyNullable, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKind_RoundTrip(t *testing.T) {
	for _, k := range []Kind{KindObject, KindString, KindInteger, KindNumber, KindBoolean, KindArray, KindFile} {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("decimal"); ok {
		t.Error("ParseKind accepted decimal")
	}
}

func TestDescription_String(t *testing.T) {
	tests := []struct {
		d    Description
		want string
	}{
		{Description{Kind: KindNone}, "any"},
		{Description{Kind: KindString, Format: FormatGUID, IsNullable: true}, "string(guid)?"},
		{Description{Kind: KindString, IsEnumAsString: true}, "string enum-as-string"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
