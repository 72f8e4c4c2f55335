package quire

import "github.com/tsawler/quire/convert"

// Warning records a recoverable conversion problem, such as an image that
// was replaced by a placeholder.
type Warning = convert.Warning

// FormatWarnings renders warnings one per line.
func FormatWarnings(warnings []Warning) string {
	return convert.FormatWarnings(warnings)
}
