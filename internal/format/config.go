package format

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// fileConfig mirrors Config's fields for YAML decoding, so a project's
// .crisp-fmt.yaml can omit any field and fall back to DefaultConfig's
// value rather than zeroing it out.
type fileConfig struct {
	Indent                *int  `yaml:"indent"`
	MaxWidth              *int  `yaml:"max_width"`
	AlignCloseParen       *bool `yaml:"align_close_paren"`
	BlankLineBetweenTrees *bool `yaml:"blank_line_between_trees"`
}

// LoadConfig reads a project-level formatter config (spec.md §6's
// formatter options) from YAML, starting from DefaultConfig and
// overriding only the fields the document sets.
func LoadConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("format: reading config: %w", err)
	}
	cfg := DefaultConfig()
	if len(data) == 0 {
		return cfg, nil
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("format: parsing config: %w", err)
	}
	if fc.Indent != nil {
		cfg.Indent = *fc.Indent
	}
	if fc.MaxWidth != nil {
		cfg.MaxWidth = *fc.MaxWidth
	}
	if fc.AlignCloseParen != nil {
		cfg.AlignCloseParen = *fc.AlignCloseParen
	}
	if fc.BlankLineBetweenTrees != nil {
		cfg.BlankLineBetweenTrees = *fc.BlankLineBetweenTrees
	}
	return cfg, nil
}
