package gomap

import (
	"errors"
	"fmt"
)

// ErrUnresolved is wrapped by every ReferenceError.
var ErrUnresolved = errors.New("unresolved reference")

// EncodingError reports a value the engine cannot encode. The offending
// field or element is omitted from the output.
type EncodingError struct {
	Path    string // Field path (e.g., "scene.channels[2].filter")
	GoType  string
	Message string
}

func (e *EncodingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("encoding error at %s (%s): %s", e.Path, e.GoType, e.Message)
	}
	return fmt.Sprintf("encoding error (%s): %s", e.GoType, e.Message)
}

// FormatError reports a node whose shape does not match its declared
// type. The branch it belongs to is left at its zero value.
type FormatError struct {
	Path    string
	Type    string
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Type != "" {
		msg = e.Type + ": " + msg
	}
	if e.Path != "" {
		return fmt.Sprintf("format error at %s: %s", e.Path, msg)
	}
	return fmt.Sprintf("format error: %s", msg)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ReferenceError reports a handle or deferred dependency that did not
// resolve by the end of decoding.
type ReferenceError struct {
	Binding string
	Path    string
	Handle  int64
	Message string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference error in %q at %s: handle %d: %s", e.Binding, e.Path, e.Handle, e.Message)
}

func (e *ReferenceError) Unwrap() error {
	return ErrUnresolved
}

// DuplicateRequestError is returned when the same name is requested twice
// from one decode call.
type DuplicateRequestError struct {
	Name string
}

func (e *DuplicateRequestError) Error() string {
	return fmt.Sprintf("name %q requested more than once", e.Name)
}

func formatErrorf(path, typ string, err error, f string, args ...any) *FormatError {
	return &FormatError{Path: path, Type: typ, Message: fmt.Sprintf(f, args...), Err: err}
}
