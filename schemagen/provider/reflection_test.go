package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"iter"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/broady/schemakit/schemagen/meta"
	"github.com/google/uuid"
)

// Test types mirror the source testdata package.

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

type Rank int

type Account struct {
	ID       uuid.UUID `json:"id" jsonschema:"required"`
	Name     string    `json:"name" validate:"required,min=1"`
	Email    string    `json:"email,omitempty"`
	Age      *int      `json:"age"`
	Role     Role      `json:"role"`
	Rank     Rank      `json:"rank"`
	Parent   *Account  `json:"parent,omitempty"`
	Password string    `json:"-"`
	secret   string
}

type Audit struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
}

type Document struct {
	Audit
	Title string `json:"title"`
}

type Ledger struct {
	_ struct{} `jsonschema:"datacontract,flatten,description=Opt-in, flattened"`

	Audit
	ID    int64 `json:"id" jsonschema:"member=required"`
	Notes string
}

type Wrappers struct {
	Count   sql.Null[int]   `json:"count"`
	Label   sql.NullString  `json:"label"`
	Ratio   **float64       `json:"ratio"`
	List    *[]string       `json:"list"`
	Forced  string          `json:"forced" jsonschema:"nullable"`
	Never   *int            `json:"never" jsonschema:"notnull"`
	Raw     json.RawMessage `json:"raw"`
	Dynamic any             `json:"dynamic"`
}

type Collections struct {
	Seq    iter.Seq[int]          `json:"seq"`
	Pairs  iter.Seq2[string, int] `json:"pairs"`
	Stream <-chan string          `json:"stream"`
	Fixed  [3]int                 `json:"fixed"`
	Index  map[string][]int       `json:"index"`
	Blob   []byte                 `json:"blob"`
	Extra  map[string]any         `json:"-" jsonschema:"extension"`
}

type Alias struct {
	parts []string
}

func (Alias) JSONSchemaAlias() any {
	return ""
}

type Severity int

func (s Severity) MarshalText() ([]byte, error) {
	return []byte("severity"), nil
}

type Custom struct{}

func (Custom) MarshalJSON() ([]byte, error) {
	return []byte("{}"), nil
}

type Tagged struct {
	Code     int64    `json:"code,string"`
	Day      string   `json:"day" jsonschema:"format=date"`
	Alias    Alias    `json:"alias"`
	AsText   Rank     `json:"as_text" jsonschema:"as=string"`
	AsRole   string   `json:"as_role" jsonschema:"as=Role"`
	Missing  string   `json:"missing" jsonschema:"as=Nowhere"`
	Note     string   `json:"note" jsonschema:"description=Free text, any length"`
	Severity Severity `json:"severity"`
	Custom   Custom   `json:"custom"`
}

type Loop struct {
	*Loop
	Name string `json:"name"`
}

type Folder struct {
	Entry *Entry `json:"entry"`
}

type Entry struct {
	Folder
	Size int `json:"size"`
}

func buildReflect(t *testing.T, enums map[reflect.Type][]any, roots ...reflect.Type) *Result {
	t.Helper()
	provider := &ReflectionProvider{}
	result, err := provider.BuildTypes(context.Background(), ReflectionInputOptions{
		RootTypes: roots,
		Enums:     enums,
	})
	if err != nil {
		t.Fatalf("BuildTypes failed: %v", err)
	}
	return result
}

func hasWarning(result *Result, code string) bool {
	for _, w := range result.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestReflectionProvider_Account(t *testing.T) {
	result := buildReflect(t, nil, reflect.TypeFor[*Account]())
	account := result.Roots[0].Type

	if account.Name != "Account" || account.Package != reflect.TypeFor[Account]().PkgPath() {
		t.Errorf("root = %s", account.FullName())
	}
	want := []string{"ID", "Name", "Email", "Age", "Role", "Rank", "Parent", "Password"}
	if got := memberNames(account); !slices.Equal(got, want) {
		t.Errorf("members = %v, want %v", got, want)
	}

	id := findMember(t, account, "ID")
	if got, want := attrNames(id.Type.Attributes), []string{meta.AttrRequired, meta.AttrRename}; !slices.Equal(got, want) {
		t.Errorf("ID attributes = %v, want %v", got, want)
	}
	if a, _ := id.Attribute(meta.AttrRename); a.Arg("Name") != "id" {
		t.Errorf("ID rename = %+v", a)
	}
	if !findMember(t, account, "Name").Has(meta.AttrRequired) {
		t.Error("Name should carry Required from the validate tag")
	}

	age := findMember(t, account, "Age").Type.Type
	if age.Name != "*int" || !age.Nullable {
		t.Errorf("Age = %+v, want nullable wrapper", age)
	}
	parent := findMember(t, account, "Parent").Type.Type
	if !parent.Nullable || parent.GenericArguments[0].Type != account {
		t.Error("Parent should wrap the Account definition itself")
	}
	if findMember(t, account, "Role").Type.Type.Enum {
		t.Error("Role is not registered, so it is not an enum")
	}
}

func TestReflectionProvider_RegisteredEnums(t *testing.T) {
	result := buildReflect(t, map[reflect.Type][]any{
		reflect.TypeFor[Role](): {RoleAdmin, RoleViewer},
		reflect.TypeFor[Rank](): {Rank(1), Rank(2)},
	}, reflect.TypeFor[Account]())
	account := result.Roots[0].Type

	role := findMember(t, account, "Role").Type.Type
	if !role.Enum || !reflect.DeepEqual(role.EnumValues, []any{"admin", "viewer"}) {
		t.Errorf("Role = %v %v", role.Enum, role.EnumValues)
	}
	if a, ok := role.Attribute(meta.AttrConverter); !ok || a.Type.FullName() != meta.StringEnumConverter {
		t.Errorf("Role converter = %+v", a)
	}

	rank := findMember(t, account, "Rank").Type.Type
	if !reflect.DeepEqual(rank.EnumValues, []any{int64(1), int64(2)}) {
		t.Errorf("Rank values = %v", rank.EnumValues)
	}
	if rank.Underlying == nil || rank.Underlying.Name != "int" {
		t.Errorf("Rank underlying = %v", rank.Underlying)
	}
}

func TestReflectionProvider_Embedding(t *testing.T) {
	result := buildReflect(t, nil, reflect.TypeFor[Document](), reflect.TypeFor[Audit]())
	doc, audit := result.Roots[0].Type, result.Roots[1].Type

	if doc.Base != audit {
		t.Errorf("Base = %v, want Audit", doc.Base)
	}
	if got, want := memberNames(doc), []string{"ID", "Created", "Title"}; !slices.Equal(got, want) {
		t.Fatalf("members = %v, want %v", got, want)
	}
	if doc.Members[0].Depth != 1 || doc.Members[2].Depth != 0 {
		t.Errorf("depths = %d, %d", doc.Members[0].Depth, doc.Members[2].Depth)
	}
}

func TestReflectionProvider_TypeAttributes(t *testing.T) {
	ledger := buildReflect(t, nil, reflect.TypeFor[Ledger]()).Roots[0].Type

	got := attrNames(ledger.Attributes)
	want := []string{meta.AttrDataContract, meta.AttrFlatten, meta.AttrDescription}
	if !slices.Equal(got, want) {
		t.Errorf("type attributes = %v, want %v", got, want)
	}
	if a, _ := ledger.Attribute(meta.AttrDescription); a.Arg("Text") != "Opt-in, flattened" {
		t.Errorf("description = %q", a.Arg("Text"))
	}
	if names := memberNames(ledger); !slices.Equal(names, []string{"ID", "Created", "ID", "Notes"}) {
		t.Errorf("members = %v", names)
	}
}

func TestReflectionProvider_Wrappers(t *testing.T) {
	w := buildReflect(t, nil, reflect.TypeFor[Wrappers]()).Roots[0].Type

	tests := []struct {
		member      string
		typeName    string
		wrapped     string
		nullability meta.NullabilityState
	}{
		{"Count", "Null[int]", "int", meta.NullabilityUnknown},
		{"Label", "NullString", "string", meta.NullabilityUnknown},
		{"Ratio", "*float64", "float64", meta.NullabilityUnknown},
		{"List", "[]string", "", meta.NullabilityNullable},
		{"Never", "*int", "int", meta.NullabilityUnknown},
		{"Raw", "RawMessage", "", meta.NullabilityUnknown},
		{"Dynamic", "interface {}", "", meta.NullabilityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.member, func(t *testing.T) {
			ct := findMember(t, w, tt.member).Type
			if ct.Type.Name != tt.typeName {
				t.Errorf("type = %q, want %q", ct.Type.Name, tt.typeName)
			}
			if ct.Nullability != tt.nullability {
				t.Errorf("nullability = %v, want %v", ct.Nullability, tt.nullability)
			}
			if tt.wrapped == "" {
				if ct.Type.Nullable {
					t.Error("unexpected nullable wrapper")
				}
				return
			}
			if !ct.Type.Nullable || ct.Type.GenericArguments[0].Type.Name != tt.wrapped {
				t.Errorf("want nullable wrapper over %s, got %+v", tt.wrapped, ct.Type)
			}
		})
	}

	raw := findMember(t, w, "Raw").Type.Type
	if raw.Underlying == nil || raw.Underlying.Name != "[]byte" {
		t.Errorf("RawMessage underlying = %v", raw.Underlying)
	}
	if dyn := findMember(t, w, "Dynamic").Type.Type; dyn.Category != meta.CategoryInterface {
		t.Errorf("Dynamic category = %v", dyn.Category)
	}
}

func TestReflectionProvider_Collections(t *testing.T) {
	c := buildReflect(t, nil, reflect.TypeFor[Collections]()).Roots[0].Type

	tests := []struct {
		member string
		cap    meta.Capability
		args   int
	}{
		{"Seq", meta.CapabilityEnumerable, 1},
		{"Pairs", meta.CapabilityDictionary, 2},
		{"Stream", meta.CapabilityAsyncEnumerable, 1},
		{"Fixed", meta.CapabilityEnumerable, 1},
		{"Index", meta.CapabilityDictionary, 2},
	}
	for _, tt := range tests {
		typ := findMember(t, c, tt.member).Type.Type
		if !typ.Implements(tt.cap) || len(typ.GenericArguments) != tt.args {
			t.Errorf("%s = %+v, want %s with %d arguments", tt.member, typ, tt.cap, tt.args)
		}
	}

	blob := findMember(t, c, "Blob").Type.Type
	if blob.Name != "[]byte" || len(blob.Capabilities) != 0 {
		t.Errorf("Blob = %+v", blob)
	}
	extra := findMember(t, c, "Extra")
	if got := attrNames(extra.Type.Attributes); !slices.Equal(got, []string{meta.AttrExtensionData, meta.AttrIgnore}) {
		t.Errorf("Extra attributes = %v", got)
	}
}

func TestReflectionProvider_Tagged(t *testing.T) {
	result := buildReflect(t, nil, reflect.TypeFor[Tagged](), reflect.TypeFor[Role]())
	tagged := result.Roots[0].Type

	code := findMember(t, tagged, "Code")
	if a, ok := code.Attribute(meta.AttrSchema); !ok || a.Arg("Type") != "string" {
		t.Errorf("Code schema = %+v", a)
	}
	day := findMember(t, tagged, "Day")
	if a, ok := day.Attribute(meta.AttrSchema); !ok || a.Arg("Format") != "date" || a.Arg("Type") != "" {
		t.Errorf("Day schema = %+v", a)
	}

	alias := findMember(t, tagged, "Alias").Type.Type
	if a, ok := alias.Attribute(meta.AttrSubstitute); !ok || a.Type.Name != "string" {
		t.Errorf("Alias substitute = %+v", a)
	}
	asText := findMember(t, tagged, "AsText")
	if a, ok := asText.Attribute(meta.AttrSubstitute); !ok || a.Type == nil || a.Type.Name != "string" {
		t.Errorf("AsText substitute = %+v", a)
	}
	// Role is a root, so it is known by the time substitutes resolve.
	asRole := findMember(t, tagged, "AsRole")
	if a, ok := asRole.Attribute(meta.AttrSubstitute); !ok || a.Type != result.Roots[1].Type {
		t.Errorf("AsRole substitute = %+v", a)
	}
	missing := findMember(t, tagged, "Missing")
	if a, _ := missing.Attribute(meta.AttrSubstitute); a.Type != nil {
		t.Errorf("Missing substitute resolved to %v", a.Type)
	}
	if !hasWarning(result, WarnUnresolvedSubstitute) {
		t.Error("expected an unresolved substitute warning")
	}

	note := findMember(t, tagged, "Note")
	if a, _ := note.Attribute(meta.AttrDescription); a.Arg("Text") != "Free text, any length" {
		t.Errorf("Note description = %q", a.Arg("Text"))
	}

	severity := findMember(t, tagged, "Severity").Type.Type
	if a, ok := severity.Attribute(meta.AttrConverter); !ok || a.Type.FullName() != meta.TextMarshalerConverter {
		t.Errorf("Severity converter = %+v", a)
	}
	if !hasWarning(result, WarnCustomMarshaler) {
		t.Error("expected a custom marshaler warning for Custom")
	}
}

func TestReflectionProvider_RecursiveEmbedding(t *testing.T) {
	result := buildReflect(t, nil, reflect.TypeFor[Loop]())
	if !hasWarning(result, WarnRecursiveEmbedding) {
		t.Errorf("warnings = %+v, want %s", result.Warnings, WarnRecursiveEmbedding)
	}
	if got := memberNames(result.Roots[0].Type); !slices.Equal(got, []string{"Name"}) {
		t.Errorf("members = %v", got)
	}
}

func TestReflectionProvider_EmbeddingThroughFieldCycle(t *testing.T) {
	folder, entry := reflect.TypeFor[Folder](), reflect.TypeFor[Entry]()
	for _, roots := range [][]reflect.Type{{folder, entry}, {entry, folder}} {
		t.Run(roots[0].Name(), func(t *testing.T) {
			result := buildReflect(t, nil, roots...)
			if hasWarning(result, WarnRecursiveEmbedding) {
				t.Errorf("unexpected warnings %+v", result.Warnings)
			}
			e := result.Root("Entry").Type
			if e.Base != result.Root("Folder").Type {
				t.Errorf("Base = %v, want the Folder definition", e.Base)
			}
			if got, want := memberNames(e), []string{"Entry", "Size"}; !slices.Equal(got, want) {
				t.Errorf("Entry members = %v, want %v", got, want)
			}
			if e.Members[0].Depth != 1 {
				t.Errorf("promoted depth = %d, want 1", e.Members[0].Depth)
			}
		})
	}
}

func TestReflectionProvider_NoRootTypes(t *testing.T) {
	provider := &ReflectionProvider{}
	if _, err := provider.BuildTypes(context.Background(), ReflectionInputOptions{}); err == nil {
		t.Error("expected error for no root types")
	}
}

func TestReflectionProvider_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := &ReflectionProvider{}
	_, err := provider.BuildTypes(ctx, ReflectionInputOptions{RootTypes: []reflect.Type{reflect.TypeFor[Audit]()}})
	if err == nil {
		t.Error("expected context error")
	}
}

// The two providers agree on member shape for mirrored types.
func TestProviders_Agree(t *testing.T) {
	src := loadTestdata(t, "Nullables", "Shapes")
	ref := buildReflect(t, nil, reflect.TypeFor[Wrappers](), reflect.TypeFor[Collections]())

	for i := range ref.Roots {
		rt, st := ref.Roots[i].Type, src.Roots[i].Type
		for _, rm := range rt.Members {
			sm := findMember(t, st, rm.Name)
			rtyp, styp := rm.Type.Type, sm.Type.Type
			// Unnamed types spell any differently; compare shape instead.
			if rtyp.Package != "" || len(rtyp.Capabilities) == 0 {
				if rtyp.Name != styp.Name {
					t.Errorf("%s.%s: reflection type %q, source type %q", rt.Name, rm.Name, rtyp.Name, styp.Name)
				}
			}
			if !slices.Equal(rtyp.Capabilities, styp.Capabilities) || rtyp.Capability != styp.Capability {
				t.Errorf("%s.%s: capabilities %v vs %v", rt.Name, rm.Name, rtyp.Capabilities, styp.Capabilities)
			}
			if rtyp.Nullable != styp.Nullable || rm.Type.Nullability != sm.Type.Nullability {
				t.Errorf("%s.%s: nullability differs", rt.Name, rm.Name)
			}
			if !slices.Equal(attrNames(rm.Type.Attributes), attrNames(sm.Type.Attributes)) {
				t.Errorf("%s.%s: attributes %v vs %v", rt.Name, rm.Name, attrNames(rm.Type.Attributes), attrNames(sm.Type.Attributes))
			}
		}
	}
}
