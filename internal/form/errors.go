package form

import "errors"

var (
	// ErrNotConfirmed is returned by destructive actions called without
	// confirmation. The state is left untouched.
	ErrNotConfirmed  = errors.New("confirmation required")
	ErrNotPointStage = errors.New("stage has no sampling points")
	ErrUnknownPoint  = errors.New("unknown point label")
)
