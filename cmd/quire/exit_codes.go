package main

import (
	"errors"
	"os"

	"github.com/tsawler/quire/config"
	"github.com/tsawler/quire/convert"
	"github.com/tsawler/quire/epub"
	"github.com/tsawler/quire/format"
)

// Exit codes for the quire CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every file converted
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags or config
	ExitIO      = 3 // File not found, permission denied, write failure
	ExitInput   = 4 // Input could not be converted
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Usage/config errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigInvalid) ||
		errors.Is(err, config.ErrConfigTooLarge) {
		return ExitUsage
	}

	// Unconvertible input (exit 4)
	var parseErr *convert.ParseError
	if errors.As(err, &parseErr) ||
		errors.Is(err, convert.ErrStructureTooDeep) ||
		errors.Is(err, format.ErrUnknownFormat) ||
		errors.Is(err, epub.ErrDRMProtected) ||
		errors.Is(err, epub.ErrInvalidArchive) {
		return ExitInput
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrWriteDOCX) ||
		errors.Is(err, ErrVerify) {
		return ExitIO
	}

	return ExitGeneral
}
