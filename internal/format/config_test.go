package format

import (
	"strings"
	"testing"
)

func TestLoadConfigOverridesOnlyGivenFields(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader("max_width: 40\nalign_close_paren: true\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := DefaultConfig()
	if cfg.Indent != def.Indent {
		t.Fatalf("expected Indent to keep its default %d, got %d", def.Indent, cfg.Indent)
	}
	if cfg.MaxWidth != 40 {
		t.Fatalf("expected MaxWidth 40, got %d", cfg.MaxWidth)
	}
	if !cfg.AlignCloseParen {
		t.Fatalf("expected AlignCloseParen true")
	}
	if cfg.BlankLineBetweenTrees != def.BlankLineBetweenTrees {
		t.Fatalf("expected BlankLineBetweenTrees to keep its default")
	}
}

func TestLoadConfigEmptyDocumentReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults for an empty document, got %+v", cfg)
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("indent: [this is not an int\n"))
	if err == nil {
		t.Fatalf("expected an error for malformed YAML")
	}
}
