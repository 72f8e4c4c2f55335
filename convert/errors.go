package convert

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tsawler/quire/markup"
)

// ErrStructureTooDeep is matched by every *StructureTooDeepError.
var ErrStructureTooDeep = errors.New("structure too deep")

// ParseError reports malformed input. It is produced by the markup parsers
// before any conversion starts.
type ParseError = markup.ParseError

// StructureTooDeepError is returned when element nesting exceeds
// Options.MaxDepth or list nesting exceeds MaxListDepth. It aborts the
// conversion.
type StructureTooDeepError struct {
	What  string // "element" or "list"
	Depth int
	Limit int
	Tag   string
}

func (e *StructureTooDeepError) Error() string {
	return fmt.Sprintf("%s nesting depth %d exceeds limit %d at <%s>", e.What, e.Depth, e.Limit, e.Tag)
}

func (e *StructureTooDeepError) Is(target error) bool {
	return target == ErrStructureTooDeep
}

// WarningKind classifies recoverable conversion problems.
type WarningKind int

const (
	// UnsupportedImageFormat means image data was not png, jpeg, gif or bmp.
	UnsupportedImageFormat WarningKind = iota + 1
	// ImageDecodeError means image data could not be decoded or read.
	ImageDecodeError
	// MissingLocalResource means a local image path did not exist.
	MissingLocalResource
	// RemoteResource means an image referenced the network and was not fetched.
	RemoteResource
)

func (k WarningKind) String() string {
	switch k {
	case UnsupportedImageFormat:
		return "unsupported image format"
	case ImageDecodeError:
		return "image decode error"
	case MissingLocalResource:
		return "missing local resource"
	case RemoteResource:
		return "remote resource not fetched"
	default:
		return "warning"
	}
}

// Warning records a problem that was recovered by degrading to a
// placeholder. Warnings never abort a conversion.
type Warning struct {
	Kind    WarningKind
	Tag     string
	Source  string
	Message string
}

func (w Warning) String() string {
	var sb strings.Builder
	sb.WriteString(w.Kind.String())
	if w.Tag != "" {
		sb.WriteString(" <")
		sb.WriteString(w.Tag)
		sb.WriteString(">")
	}
	if w.Source != "" {
		sb.WriteString(" ")
		sb.WriteString(truncate(w.Source, 80))
	}
	if w.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(w.Message)
	}
	return sb.String()
}

// FormatWarnings renders warnings one per line.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
