package markup

import (
	"errors"
	"fmt"
)

// ErrNoRoot is returned when an XML source contains no root element.
var ErrNoRoot = errors.New("markup: document has no root element")

// ParseError reports malformed input at the parser boundary. It is fatal:
// no conversion starts once parsing fails.
type ParseError struct {
	Format string // "html", "xml" or "markdown"
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
