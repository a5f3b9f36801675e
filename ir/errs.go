package ir

import "errors"

var (
	ErrShape = errors.New("malformed wire node")
	ErrSize  = errors.New("malformed _size")
)
