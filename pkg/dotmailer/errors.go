package dotmailer

import (
	"errors"
	"fmt"

	"github.com/natserract/dotmailer/pkg/soap"
)

// Local validation failures. These are returned before any remote call is made.
var (
	ErrCredentialsMissing        = errors.New("username and password are required")
	ErrMissingRequiredParameters = errors.New("missing required parameters")
	ErrInvalidParameters         = errors.New("invalid parameters")
	ErrInvalidFileFormat         = errors.New("invalid file format")
	ErrInvalidContactType        = errors.New("invalid contact type")
	ErrUnsupportedFieldType      = errors.New("unsupported data field type")

	// ErrInvalidDateTimeFormat is also an ErrInvalidParameters.
	ErrInvalidDateTimeFormat = fmt.Errorf("%w: invalid date time format", ErrInvalidParameters)
)

// ErrMissingResult is returned when a call succeeded but the response lacks
// the nested result the operation requires.
var ErrMissingResult = errors.New("response is missing the expected result")

// AsFault returns the remote fault carried by err, if any.
func AsFault(err error) (*soap.Fault, bool) {
	var fault *soap.Fault
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}
