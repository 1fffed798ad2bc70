package networked

import "testing"

func TestMatchNameInExact(t *testing.T) {
	got := matchNameIn("Email", []string{"Email", "id"})
	if got != "Email" {
		t.Fatalf("matchNameIn exact = %q, want %q", got, "Email")
	}
}

func TestMatchNameInLowercaseMatch(t *testing.T) {
	got := matchNameIn("Email", []string{"email", "id"})
	if got != "email" {
		t.Fatalf("matchNameIn lowercase = %q, want %q", got, "email")
	}
}

func TestMatchNameInUniqueCaseInsensitiveVariant(t *testing.T) {
	got := matchNameIn("email", []string{"Email", "id"})
	if got != "Email" {
		t.Fatalf("matchNameIn unique variant = %q, want %q", got, "Email")
	}
}

func TestMatchNameInAmbiguousVariantsLeftUnchanged(t *testing.T) {
	got := matchNameIn("email", []string{"Email", "EMAIL"})
	if got != "email" {
		t.Fatalf("matchNameIn ambiguous = %q, want original %q", got, "email")
	}
}

func TestMatchNameInNoMatchLeftUnchanged(t *testing.T) {
	got := matchNameIn("Phone", []string{"email", "id"})
	if got != "Phone" {
		t.Fatalf("matchNameIn no match = %q, want original %q", got, "Phone")
	}
}

func TestSchemaCacheMatchNameUnknownTableLeavesNameUnchanged(t *testing.T) {
	c := newSchemaCache()
	c.loaded = true
	if got := c.matchName("widget", "Name"); got != "Name" {
		t.Fatalf("matchName on unknown table = %q, want %q", got, "Name")
	}
}

func TestSchemaCacheMatchNameAcrossTables(t *testing.T) {
	c := newSchemaCache()
	c.tables["widget"] = &tableInfo{Order: []string{"id", "name"}}
	c.tables["Gadget"] = &tableInfo{Order: []string{"id"}}
	c.loaded = true

	if got := c.matchName("", "gadget"); got != "Gadget" {
		t.Fatalf("matchName table-name resolution = %q, want %q", got, "Gadget")
	}
}

func TestSchemaCacheDeclaredTypeTrimsQuotes(t *testing.T) {
	c := newSchemaCache()
	c.tables["widget"] = &tableInfo{Fields: map[string]fieldInfo{
		"payload": {Name: "payload", Type: "jsonb"},
	}}
	c.loaded = true

	tag, ok := c.declaredType(`"widget"`, `"payload"`)
	if !ok || tag != "jsonb" {
		t.Fatalf("declaredType = (%q, %v), want (%q, true)", tag, ok, "jsonb")
	}
}
