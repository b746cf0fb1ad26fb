package speech

import "errors"

var (
	// ErrEmptyInput means the request carried no synthesizable text.
	ErrEmptyInput = errors.New("input text is empty")

	// ErrUnsupportedFormat means the requested output format is not one
	// the gateway can produce.
	ErrUnsupportedFormat = errors.New("unsupported output format")
)
