package inspect

import (
	"bytes"
	"strings"
	"testing"

	"github.com/broady/schemakit/schemagen"
	"github.com/broady/schemakit/schemagen/classify"
)

func TestPrint(t *testing.T) {
	reports := []schemagen.TypeReport{
		{
			Type:        "example.com/api.User",
			Description: classify.Description{Kind: classify.KindObject},
			Members: []schemagen.MemberReport{
				{Name: "id", Description: classify.Description{Kind: classify.KindString, Format: classify.FormatGUID}, Required: true},
				{Name: "age", Description: classify.Description{Kind: classify.KindInteger, Format: classify.FormatInt32, IsNullable: true}, Nullable: true},
				{Name: "extra", Description: classify.Description{Kind: classify.KindNone}},
			},
		},
		{
			Type:        "example.com/api.Status",
			Description: classify.Description{Kind: classify.KindString, IsEnumAsString: true},
		},
	}

	var buf bytes.Buffer
	if err := Print(&buf, reports); err != nil {
		t.Fatalf("Print() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s", len(lines), buf.String())
	}
	tests := []struct {
		line   int
		fields []string
	}{
		{0, []string{"example.com/api.User", "object"}},
		{1, []string{"id", "string", "guid", "required", "-"}},
		{2, []string{"age", "integer", "int32", "-", "nullable"}},
		{3, []string{"extra", "any", "-", "-", "-"}},
		{5, []string{"example.com/api.Status", "string", "enum-as-string"}},
	}
	for _, tt := range tests {
		if got := strings.Fields(lines[tt.line]); strings.Join(got, " ") != strings.Join(tt.fields, " ") {
			t.Errorf("line %d = %q, want fields %v", tt.line, lines[tt.line], tt.fields)
		}
	}
}
