package domain

import (
	"errors"
	"fmt"
)

// Client-facing error messages
const (
	MsgInvalidJSON         = "Invalid JSON format"
	MsgNoMessage           = "No message provided"
	MsgUnsupportedFileType = "Unsupported file type"
	MsgNoFile              = "No file provided"
	MsgFileTooLarge        = "File too large"
)

var (
	// ErrInvalidJSON indicates a frame that is not valid JSON
	ErrInvalidJSON = &InputError{Reason: MsgInvalidJSON}
	// ErrEmptyMessage indicates a frame without a message
	ErrEmptyMessage = &InputError{Reason: MsgNoMessage}
	// ErrUnsupportedFileType indicates an upload outside the image allow-list
	ErrUnsupportedFileType = &InputError{Reason: MsgUnsupportedFileType}
)

// InputError is a problem with what the client sent. It is reported back
// and never ends the connection.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

// UpstreamError wraps a failed call to the model API
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }

// TransportError wraps a failed send on the client connection
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %v", e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err originates from the client connection
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsInput reports whether err is a client input error
func IsInput(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
