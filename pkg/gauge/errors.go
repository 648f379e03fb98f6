package gauge

import "errors"

var (
	// ErrDecodeOutOfRange is returned when a configured scale produces a value
	// that does not fit the decoded sample.
	ErrDecodeOutOfRange = errors.New("decoded value out of range")
)
