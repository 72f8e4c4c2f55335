package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/quire/classify"
	"github.com/tsawler/quire/convert"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quire.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}

	want := convert.DefaultOptions()
	if opts.IncludeImages != want.IncludeImages || opts.HeaderRow != want.HeaderRow {
		t.Errorf("IncludeImages/HeaderRow = %v/%v, want %v/%v",
			opts.IncludeImages, opts.HeaderRow, want.IncludeImages, want.HeaderRow)
	}
	if opts.MaxDepth != want.MaxDepth || opts.CodeStyle != want.CodeStyle {
		t.Errorf("MaxDepth = %d CodeStyle = %q", opts.MaxDepth, opts.CodeStyle)
	}
	if opts.Classifier != nil {
		t.Errorf("Classifier = %T, want nil for auto", opts.Classifier)
	}
	if opts.Navigation != convert.NavigationExclusionNone {
		t.Errorf("Navigation = %v, want None", opts.Navigation)
	}
}

func TestLoad(t *testing.T) {
	t.Run("valid file loads config", func(t *testing.T) {
		path := writeConfig(t, `preserveWhitespace: true
includeImages: false
maxDepth: 64
classifier: heuristic
navigation: standard
highlight:
  enabled: false
  style: monokai
metadata:
  title: "Report"
  author: "Ada"
tags:
  chapter: heading1
  note: quote
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !cfg.PreserveWhitespace || cfg.IncludeImages {
			t.Errorf("PreserveWhitespace = %v IncludeImages = %v", cfg.PreserveWhitespace, cfg.IncludeImages)
		}
		if !cfg.HeaderRow {
			t.Error("HeaderRow = false, want default true when key is absent")
		}
		if cfg.Metadata.Title != "Report" || cfg.Metadata.Author != "Ada" {
			t.Errorf("Metadata = %+v", cfg.Metadata)
		}

		opts, err := cfg.Options()
		if err != nil {
			t.Fatalf("Options() error = %v", err)
		}
		if opts.MaxDepth != 64 {
			t.Errorf("MaxDepth = %d, want 64", opts.MaxDepth)
		}
		if _, ok := opts.Classifier.(*classify.Heuristic); !ok {
			t.Errorf("Classifier = %T, want *classify.Heuristic", opts.Classifier)
		}
		if opts.Navigation != convert.NavigationExclusionStandard {
			t.Errorf("Navigation = %v, want Standard", opts.Navigation)
		}
		if opts.HighlightCode || opts.CodeStyle != "monokai" {
			t.Errorf("HighlightCode = %v CodeStyle = %q", opts.HighlightCode, opts.CodeStyle)
		}
		if opts.Title != "Report" || opts.Author != "Ada" {
			t.Errorf("Title = %q Author = %q", opts.Title, opts.Author)
		}
		if got := opts.TagRoles["chapter"]; got.Kind != classify.Heading || got.Level != 1 {
			t.Errorf("TagRoles[chapter] = %v, want heading 1", got)
		}
		if got := opts.TagRoles["note"]; got.Kind != classify.Quote {
			t.Errorf("TagRoles[note] = %v, want quote", got)
		}
	})

	t.Run("nonexistent file returns ErrConfigNotFound", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("empty file yields defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Classifier != ClassifierAuto || !cfg.IncludeImages {
			t.Errorf("cfg = %+v, want defaults", cfg)
		}
	})

	t.Run("oversized file returns ErrConfigTooLarge", func(t *testing.T) {
		big := "# " + strings.Repeat("x", MaxFileSize) + "\n"
		_, err := Load(writeConfig(t, big))
		if !errors.Is(err, ErrConfigTooLarge) {
			t.Errorf("error = %v, want ErrConfigTooLarge", err)
		}
	})
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown key", "colour: red\n", ErrConfigParse},
		{"malformed yaml", "tags: [unclosed\n", ErrConfigParse},
		{"wrong type", "maxDepth: deep\n", ErrConfigParse},
		{"bad classifier", "classifier: neural\n", ErrConfigInvalid},
		{"bad navigation", "navigation: everything\n", ErrConfigInvalid},
		{"negative depth", "maxDepth: -1\n", ErrConfigInvalid},
		{"unknown role", "tags:\n  foo: sparkle\n", ErrConfigInvalid},
		{"bad heading level", "tags:\n  foo: heading9\n", ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClassifierByName(t *testing.T) {
	if ClassifierByName(ClassifierHTML) != classify.HTML {
		t.Error("ClassifierByName(html) != classify.HTML")
	}
	if _, ok := ClassifierByName(ClassifierHeuristic).(*classify.Heuristic); !ok {
		t.Error("ClassifierByName(heuristic) is not a Heuristic")
	}
	for _, name := range []string{ClassifierAuto, "", "other"} {
		if c := ClassifierByName(name); c != nil {
			t.Errorf("ClassifierByName(%q) = %T, want nil", name, c)
		}
	}
}
