package tasks

import "errors"

var (
	ErrUnknownKind   = errors.New("unknown task kind")
	ErrMissingTarget = errors.New("task record missing target")
	ErrBadRecord     = errors.New("invalid task record")
)
