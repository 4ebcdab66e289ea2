package diag

import (
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// ToJSON renders the bag as a `{"diagnostics":[...]}` document using sjson
// to build the structure incrementally (grounded on the teacher's indirect
// dependency on tidwall/sjson), then reformats it with tidwall/pretty for
// stable, indented output that `cmd/crisp --json` writes verbatim.
func (b *Bag) ToJSON() (string, error) {
	doc := `{"diagnostics":[]}`
	var err error
	for i, d := range b.SortedByLocation() {
		path := func(field string) string { return "diagnostics." + strconv.Itoa(i) + "." + field }
		if doc, err = sjson.Set(doc, path("code"), d.Code); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, path("severity"), d.Severity.String()); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, path("message"), d.Message); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, path("span.start"), d.Span.Start); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, path("span.length"), d.Span.Length); err != nil {
			return "", err
		}
		if d.Subject != "" {
			if doc, err = sjson.Set(doc, path("subject"), d.Subject); err != nil {
				return "", err
			}
		}
	}
	return string(pretty.Pretty([]byte(doc))), nil
}

// Query runs a gjson path expression against a diagnostics JSON document —
// the engine behind `cmd/crisp --json-query`, letting callers pull e.g.
// `diagnostics.#(code=="BS0037").message` without hand-parsing the export.
func Query(document, path string) string {
	return gjson.Get(document, path).String()
}
