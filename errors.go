package mscfb

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is in callers; I/O failures are returned wrapped
// with the step that failed.
var (
	// ErrorInvalidData means the caller passed malformed input (empty path,
	// bad name, unsupported sector size) or a built table failed validation.
	ErrorInvalidData = errors.New("invalid data")
	// ErrorInvalidFormat means a structural contract was violated.
	ErrorInvalidFormat = errors.New("invalid format")
	// ErrorStreamNotFound means no stream exists at the requested path.
	ErrorStreamNotFound = errors.New("stream not found")

	ErrorInvalidCFB = fmt.Errorf("invalid cfb file: %w", ErrorInvalidFormat)
	ErrorNotAStream = fmt.Errorf("not a stream: %w", ErrorStreamNotFound)
)
