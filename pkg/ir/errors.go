package ir

import "errors"

var (
	// ErrDecode is returned when an IR document cannot be decoded.
	ErrDecode = errors.New("invalid IR document")

	// ErrUnknownStmt is returned for statement types outside the closed set.
	ErrUnknownStmt = errors.New("unknown statement type")

	// ErrIndexOutOfRange is returned for static pool references past the end
	// of the pool.
	ErrIndexOutOfRange = errors.New("static pool index out of range")
)
