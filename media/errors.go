package media

import "fmt"

// ValidationError is returned when an upload is rejected before any decoding
// takes place.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CodecError is returned when image bytes cannot be decoded or encoded.
type CodecError struct {
	Filename string
	Err      error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("could not process image %q: %v", e.Filename, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}
