// Package config loads conversion settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/tsawler/quire/classify"
	"github.com/tsawler/quire/convert"
)

// MaxFileSize limits config input to prevent memory exhaustion.
const MaxFileSize = 1 << 20

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrConfigInvalid  = errors.New("invalid config")
	ErrConfigTooLarge = errors.New("config file exceeds maximum size")
)

// Classifier names accepted by the classifier key.
const (
	ClassifierAuto      = "auto"
	ClassifierHTML      = "html"
	ClassifierHeuristic = "heuristic"
)

// Config mirrors the YAML file.
type Config struct {
	PreserveWhitespace bool              `yaml:"preserveWhitespace"`
	IncludeImages      bool              `yaml:"includeImages"`
	HeaderRow          bool              `yaml:"headerRow"`
	MaxDepth           int               `yaml:"maxDepth"`
	MaxImageBytes      int64             `yaml:"maxImageBytes"`
	Classifier         string            `yaml:"classifier"`
	Navigation         string            `yaml:"navigation"`
	Highlight          HighlightConfig   `yaml:"highlight"`
	Metadata           MetadataConfig    `yaml:"metadata"`
	Tags               map[string]string `yaml:"tags"`
}

// HighlightConfig controls code block colouring.
type HighlightConfig struct {
	Enabled bool   `yaml:"enabled"`
	Style   string `yaml:"style"`
}

// MetadataConfig overrides document properties.
type MetadataConfig struct {
	Title   string `yaml:"title"`
	Author  string `yaml:"author"`
	Subject string `yaml:"subject"`
}

// Default returns the configuration matching convert.DefaultOptions.
func Default() *Config {
	opts := convert.DefaultOptions()
	return &Config{
		IncludeImages: opts.IncludeImages,
		HeaderRow:     opts.HeaderRow,
		MaxDepth:      opts.MaxDepth,
		MaxImageBytes: opts.MaxImageBytes,
		Classifier:    ClassifierAuto,
		Navigation:    "none",
		Highlight: HighlightConfig{
			Enabled: opts.HighlightCode,
			Style:   opts.CodeStyle,
		},
	}
}

// Load reads a config file. Keys missing from the file keep their defaults;
// unknown keys are rejected.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data over the defaults.
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), MaxFileSize)
	}

	cfg := Default()
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and tag role names.
func (c *Config) Validate() error {
	switch c.Classifier {
	case "", ClassifierAuto, ClassifierHTML, ClassifierHeuristic:
	default:
		return fmt.Errorf("%w: classifier %q (want auto, html or heuristic)", ErrConfigInvalid, c.Classifier)
	}

	switch c.Navigation {
	case "", "none", "explicit", "standard", "aggressive":
	default:
		return fmt.Errorf("%w: navigation %q (want none, explicit, standard or aggressive)", ErrConfigInvalid, c.Navigation)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: maxDepth must not be negative", ErrConfigInvalid)
	}
	if c.MaxImageBytes < 0 {
		return fmt.Errorf("%w: maxImageBytes must not be negative", ErrConfigInvalid)
	}

	if _, err := classify.ParseRoles(c.Tags); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	return nil
}

// Options converts the config into conversion options. The "auto"
// classifier leaves Options.Classifier nil so the caller can pick one per
// input format.
func (c *Config) Options() (convert.Options, error) {
	if err := c.Validate(); err != nil {
		return convert.Options{}, err
	}

	opts := convert.DefaultOptions()
	opts.PreserveWhitespace = c.PreserveWhitespace
	opts.IncludeImages = c.IncludeImages
	opts.HeaderRow = c.HeaderRow
	if c.MaxDepth > 0 {
		opts.MaxDepth = c.MaxDepth
	}
	if c.MaxImageBytes > 0 {
		opts.MaxImageBytes = c.MaxImageBytes
	}
	opts.Navigation = convert.ParseNavigationExclusion(c.Navigation)
	opts.HighlightCode = c.Highlight.Enabled
	if c.Highlight.Style != "" {
		opts.CodeStyle = c.Highlight.Style
	}
	opts.Title = c.Metadata.Title
	opts.Author = c.Metadata.Author
	opts.Subject = c.Metadata.Subject
	opts.Classifier = ClassifierByName(c.Classifier)

	if len(c.Tags) > 0 {
		roles, err := classify.ParseRoles(c.Tags)
		if err != nil {
			return convert.Options{}, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
		opts.TagRoles = roles
	}
	return opts, nil
}

// ClassifierByName returns the classifier for a name, or nil for "auto"
// and unrecognised names.
func ClassifierByName(name string) classify.Classifier {
	switch name {
	case ClassifierHTML:
		return classify.HTML
	case ClassifierHeuristic:
		return classify.NewHeuristic()
	default:
		return nil
	}
}
