package diag

import (
	"strings"
	"testing"

	"github.com/crisp-lang/crisp/internal/token"
)

func TestBagAddAndRender(t *testing.T) {
	b := NewBag()
	b.Add("BS0038", token.Span{Start: 5, Length: 1}, "Bogus")
	if !b.HasErrors() {
		t.Fatal("expected HasErrors to be true")
	}
	d := b.All()[0]
	if d.Code != "BS0038" {
		t.Fatalf("unexpected code %s", d.Code)
	}
	rendered := Render(d, "(tree A (ref Bogus))", false)
	if !strings.Contains(rendered, "undefined tree reference") {
		t.Fatalf("expected rendered message to contain template text, got %q", rendered)
	}
}

func TestBagToJSONRoundTrips(t *testing.T) {
	b := NewBag()
	b.AddWithSubject("BS0020", token.Span{Start: 0, Length: 4}, "Tree10", "Tree10")
	b.AddWithSubject("BS0020", token.Span{Start: 0, Length: 4}, "Tree2", "Tree2")
	doc, err := b.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	if !strings.Contains(doc, `"code": "BS0020"`) {
		t.Fatalf("expected JSON document to contain diagnostic code, got %s", doc)
	}
	if Query(doc, "diagnostics.0.code") != "BS0020" {
		t.Fatalf("expected gjson query to find code, got document %s", doc)
	}
}

func TestSortedByLocationNaturalTieBreak(t *testing.T) {
	b := NewBag()
	b.AddWithSubject("BS0020", token.Span{Start: 0, Length: 0}, "Tree10")
	b.AddWithSubject("BS0020", token.Span{Start: 0, Length: 0}, "Tree2")
	sorted := b.SortedByLocation()
	if sorted[0].Subject != "Tree2" || sorted[1].Subject != "Tree10" {
		t.Fatalf("expected natural order Tree2, Tree10; got %s, %s", sorted[0].Subject, sorted[1].Subject)
	}
}
