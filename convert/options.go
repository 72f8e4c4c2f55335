package convert

import (
	"io/fs"

	"go.uber.org/zap"

	"github.com/tsawler/quire/classify"
)

const (
	// DefaultMaxDepth bounds element nesting during traversal.
	DefaultMaxDepth = 256

	// MaxListDepth bounds list nesting. Word processors support nine levels.
	MaxListDepth = 9

	// DefaultMaxImageBytes bounds a single local image read.
	DefaultMaxImageBytes = 20 << 20

	// DefaultCodeStyle is the chroma style used to colour code blocks.
	DefaultCodeStyle = "github"
)

// Layout constants, in points.
const (
	BaseFontSize    = 24.0
	MinHeadingSize  = 12.0
	ListIndentStep  = 36.0
	QuoteIndent     = 36.0
	HeadingSpaceBef = 12.0
	HeadingSpaceAft = 6.0
	ParagraphSpace  = 8.0
)

// LinkColor is the colour applied to hyperlink runs.
const LinkColor = "0563C1"

// NavigationExclusion controls how navigation, headers, and footers are filtered.
type NavigationExclusion int

const (
	// NavigationExclusionNone includes all content without filtering.
	NavigationExclusionNone NavigationExclusion = iota

	// NavigationExclusionExplicit skips only explicit semantic HTML5 elements:
	// <nav>, <aside>, and ARIA roles (role="navigation", role="complementary").
	// <header> and <footer> are only skipped when they are direct children of <body>
	// or a single top-level wrapper element.
	NavigationExclusionExplicit

	// NavigationExclusionStandard combines explicit element detection with
	// common class/id pattern matching.
	NavigationExclusionStandard

	// NavigationExclusionAggressive adds link-density heuristics to standard detection.
	NavigationExclusionAggressive
)

// ParseNavigationExclusion maps "none", "explicit", "standard" and
// "aggressive" to a mode. Unrecognised names map to None.
func ParseNavigationExclusion(name string) NavigationExclusion {
	switch name {
	case "explicit":
		return NavigationExclusionExplicit
	case "standard":
		return NavigationExclusionStandard
	case "aggressive":
		return NavigationExclusionAggressive
	default:
		return NavigationExclusionNone
	}
}

// Options configures one conversion.
type Options struct {
	// PreserveWhitespace keeps literal whitespace instead of collapsing runs
	// of it to a single space.
	PreserveWhitespace bool

	// IncludeImages enables image handling. When false, images are skipped
	// without a placeholder.
	IncludeImages bool

	// Document metadata passed through to the writer. Empty values fall back
	// to the source's <title> and <meta> tags.
	Title   string
	Author  string
	Subject string

	// Classifier maps tags to roles. Nil means classify.HTML.
	Classifier classify.Classifier

	// TagRoles extends or overrides Classifier for specific tags.
	TagRoles map[string]classify.Role

	// HeaderRow marks the first row of every table as a header row.
	HeaderRow bool

	// MaxDepth bounds element nesting. Zero means DefaultMaxDepth.
	MaxDepth int

	// MaxImageBytes bounds a single local image read. Zero means
	// DefaultMaxImageBytes.
	MaxImageBytes int64

	// BaseDir resolves relative image paths. With Resources set it is a
	// slash-separated directory inside Resources.
	BaseDir string

	// Resources, when set, replaces the local filesystem for image lookups.
	Resources fs.FS

	// Navigation selects boilerplate filtering.
	Navigation NavigationExclusion

	// HighlightCode colours code blocks that declare a language.
	HighlightCode bool

	// CodeStyle names the chroma style used for highlighting.
	CodeStyle string

	// Logger receives degradation reports. Nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions returns the default conversion options.
func DefaultOptions() Options {
	return Options{
		IncludeImages: true,
		HeaderRow:     true,
		MaxDepth:      DefaultMaxDepth,
		MaxImageBytes: DefaultMaxImageBytes,
		HighlightCode: true,
		CodeStyle:     DefaultCodeStyle,
	}
}

// Clone creates a deep copy of Options.
func (o Options) Clone() Options {
	c := o
	if o.TagRoles != nil {
		c.TagRoles = make(map[string]classify.Role, len(o.TagRoles))
		for k, v := range o.TagRoles {
			c.TagRoles[k] = v
		}
	}
	return c
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

func (o Options) maxImageBytes() int64 {
	if o.MaxImageBytes <= 0 {
		return DefaultMaxImageBytes
	}
	return o.MaxImageBytes
}

func (o Options) classifier() classify.Classifier {
	base := o.Classifier
	if base == nil {
		base = classify.HTML
	}
	return classify.WithOverrides(base, o.TagRoles)
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
