package bus

import "errors"

var (
	// ErrReadOnly is returned when a write is attempted on a read-only transport.
	ErrReadOnly = errors.New("bus does not support writes")
	// ErrUnknownKind is returned by Open for an unsupported bus kind.
	ErrUnknownKind = errors.New("unknown bus kind")
)
