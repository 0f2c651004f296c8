package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrUnknownRejection = errors.New("unknown rejection reason")
)
