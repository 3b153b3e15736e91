// Package fieldspec holds the data-driven field configuration: which
// keyword labels to look for, which labels terminate them, and how the
// value sits relative to the label. The built-in set mirrors German
// university module handbooks and can be replaced via a YAML file.
package fieldspec

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/hbkit/handbook-extract/internal/layout"
)

// FieldSpec describes one extractable field. Keywords are alternatives
// tried in order; the first one present on a page wins. Terminators mark
// the start of the next table row.
type FieldSpec struct {
	Name           string             `mapstructure:"name"`
	Keywords       []string           `mapstructure:"keywords"`
	Terminators    []string           `mapstructure:"terminators"`
	Orientation    layout.Orientation `mapstructure:"orientation"`
	Regex          bool               `mapstructure:"regex"`
	SplitSentences bool               `mapstructure:"split_sentences"`

	keywordMatchers    []*layout.KeywordMatcher
	terminatorMatchers []*layout.KeywordMatcher
}

// KeywordMatchers returns the compiled keyword matchers in configured
// order. Compile must have been called on the owning Set.
func (f *FieldSpec) KeywordMatchers() []*layout.KeywordMatcher {
	return f.keywordMatchers
}

// TerminatorMatchers returns the compiled terminator matchers.
func (f *FieldSpec) TerminatorMatchers() []*layout.KeywordMatcher {
	return f.terminatorMatchers
}

// Set is the full field configuration for a run. ModuleStart names the
// field whose keyword opens a new module record.
type Set struct {
	ModuleStart string      `mapstructure:"module_start"`
	Fields      []FieldSpec `mapstructure:"fields"`
}

// Default returns the built-in field set for German module handbooks:
// module id, title, competencies and requirements, each terminated by
// the label of the following table row.
func Default() *Set {
	set := &Set{
		ModuleStart: "id",
		Fields: []FieldSpec{
			{
				Name:        "id",
				Keywords:    []string{"Modulnummer"},
				Terminators: []string{"Titel"},
				Orientation: layout.OrientationRightOf,
			},
			{
				Name:        "name",
				Keywords:    []string{"Titel"},
				Terminators: []string{"Leistungspunkte", "Credits"},
				Orientation: layout.OrientationRightOf,
			},
			{
				Name:           "competencies",
				Keywords:       []string{"Lernziele / Kompetenzen", "Lernziele/Kompetenzen"},
				Terminators:    []string{"Voraussetzungen"},
				Orientation:    layout.OrientationRightOf,
				SplitSentences: true,
			},
			{
				Name:           "requirements",
				Keywords:       []string{"Voraussetzungen"},
				Terminators:    []string{"Niveaustufe"},
				Orientation:    layout.OrientationRightOf,
				SplitSentences: true,
			},
		},
	}

	// The built-in set is known good.
	if err := set.Compile(); err != nil {
		panic(err)
	}
	return set
}

// Load reads a field set from a YAML file and compiles it.
func Load(path string) (*Set, error) {
	if path == "" {
		return nil, fmt.Errorf("field spec path cannot be empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot access field spec file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read field spec file %s: %w", path, err)
	}

	var set Set
	if err := v.Unmarshal(&set); err != nil {
		return nil, fmt.Errorf("failed to parse field spec file %s: %w", path, err)
	}

	if err := set.Compile(); err != nil {
		return nil, fmt.Errorf("invalid field spec file %s: %w", path, err)
	}
	return &set, nil
}

// Compile validates the set and compiles all keyword and terminator
// patterns. It must be called once before the set is used.
func (s *Set) Compile() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("field set contains no fields")
	}

	seen := make(map[string]bool, len(s.Fields))
	moduleStartFound := false

	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true

		if f.Name == s.ModuleStart {
			moduleStartFound = true
		}

		if len(f.Keywords) == 0 {
			return fmt.Errorf("field %q has no keywords", f.Name)
		}
		if f.Orientation == "" {
			f.Orientation = layout.OrientationRightOf
		}
		if !f.Orientation.Valid() {
			return fmt.Errorf("field %q has unknown orientation %q", f.Name, f.Orientation)
		}

		f.keywordMatchers = f.keywordMatchers[:0]
		for _, kw := range f.Keywords {
			m, err := layout.NewKeywordMatcher(kw, f.Regex)
			if err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
			f.keywordMatchers = append(f.keywordMatchers, m)
		}

		f.terminatorMatchers = f.terminatorMatchers[:0]
		for _, term := range f.Terminators {
			m, err := layout.NewKeywordMatcher(term, f.Regex)
			if err != nil {
				return fmt.Errorf("field %q terminator: %w", f.Name, err)
			}
			f.terminatorMatchers = append(f.terminatorMatchers, m)
		}
	}

	if s.ModuleStart == "" {
		return fmt.Errorf("module_start field name cannot be empty")
	}
	if !moduleStartFound {
		return fmt.Errorf("module_start field %q is not defined in the field set", s.ModuleStart)
	}

	return nil
}

// ModuleStartSpec returns the field spec that opens a new module record.
func (s *Set) ModuleStartSpec() *FieldSpec {
	for i := range s.Fields {
		if s.Fields[i].Name == s.ModuleStart {
			return &s.Fields[i]
		}
	}
	return nil
}
