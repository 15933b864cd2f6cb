package index

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/mj1618/navsync/internal/model"
)

func sampleIndex() Index {
	return Index{
		Fields: []model.Descriptor{
			{Role: model.RoleTextField, Label: "To", ClickPoint: &model.Point{X: 100, Y: 40},
				Fields: map[string]string{model.FieldDescription: "Text Input Field", model.FieldValue: "a@b.c"}},
		},
		Elements: []model.Descriptor{
			{Role: model.RoleButton, Label: "Send <now>", ClickPoint: &model.Point{X: 10.5, Y: 20},
				AncestorPath: []model.PathSegment{{Role: model.RoleWindow}, {Role: model.RoleToolbar, Index: 2}}},
			{Role: model.RoleRow, Label: "report.pdf", Fields: map[string]string{model.FieldKind: "PDF", model.FieldSize: "2 MB"},
				Details: []model.Detail{{Role: model.RoleCell, Value: "report.pdf"}}},
		},
	}
}

func TestEncode_SentinelSeparatesSegments(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleIndex()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
	if lines[1] != Sentinel {
		t.Errorf("line 2 = %q, want sentinel", lines[1])
	}
	if strings.Contains(lines[2], `<`) {
		t.Errorf("HTML escaping should be disabled: %s", lines[2])
	}
}

func TestEncode_NoFieldsNoSentinel(t *testing.T) {
	var buf bytes.Buffer
	ix := sampleIndex()
	ix.Fields = nil
	if err := Encode(&buf, ix); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), Sentinel) {
		t.Error("sentinel written without a field segment")
	}
}

func TestRoundTrip_ByteIdentical(t *testing.T) {
	var first bytes.Buffer
	if err := Encode(&first, sampleIndex()); err != nil {
		t.Fatal(err)
	}
	ix, err := Decode(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	var second bytes.Buffer
	if err := Encode(&second, ix); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Errorf("round trip changed output:\n%s\nvs\n%s", first.String(), second.String())
	}
}

func TestDecode_Segments(t *testing.T) {
	input := `{"role":"AXTextField","label":"Subject"}
# --- ACTIONABLE ELEMENTS BELOW ---

# a comment
{"role":"AXButton","label":"Send"}
`
	ix, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(ix.Fields) != 1 || ix.Fields[0].Label != "Subject" {
		t.Errorf("fields = %+v", ix.Fields)
	}
	if len(ix.Elements) != 1 || ix.Elements[0].Label != "Send" {
		t.Errorf("elements = %+v", ix.Elements)
	}
	all := ix.All()
	if len(all) != 2 || all[0].Label != "Subject" {
		t.Errorf("All() = %+v", all)
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader("{\"role\":\n"))
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("expected line-numbered error, got %v", err)
	}
}

func TestStore(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	name := model.IndexName(model.IndexNavigation, "com.example", "Main")
	if s.Exists(name) {
		t.Fatal("index should not exist yet")
	}
	if _, err := s.Load(name); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load missing = %v, want ErrNotFound", err)
	}
	if err := s.Save(name, sampleIndex()); err != nil {
		t.Fatal(err)
	}
	if !s.Exists(name) {
		t.Fatal("index should exist after Save")
	}
	ix, err := s.Load(name)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 3 {
		t.Errorf("Len() = %d, want 3", ix.Len())
	}

	before, _ := os.ReadFile(s.Path(name))
	if err := s.Save(name, ix); err != nil {
		t.Fatal(err)
	}
	after, _ := os.ReadFile(s.Path(name))
	if !bytes.Equal(before, after) {
		t.Error("re-persisting a loaded index changed its bytes")
	}

	if err := s.Remove(name); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(name); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
}
