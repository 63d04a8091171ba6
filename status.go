package apm

import (
	"errors"

	"github.com/tphakala/go-audio-apm/engine"
)

// Status is an operation status code. It shares its value space with the
// engine so engine codes reach the caller untouched. A Status is an error;
// bridge methods return nil instead of StatusOK.
type Status = engine.Code

// Status codes.
const (
	StatusOK                    = engine.NoError
	StatusUnspecified           = engine.UnspecifiedError
	StatusCreationFailed        = engine.CreationFailedError
	StatusUnsupportedComponent  = engine.UnsupportedComponentError
	StatusUnsupportedFunction   = engine.UnsupportedFunctionError
	StatusNullPointer           = engine.NullPointerError
	StatusBadParameter          = engine.BadParameterError
	StatusBadSampleRate         = engine.BadSampleRateError
	StatusBadDataLength         = engine.BadDataLengthError
	StatusBadNumberChannels     = engine.BadNumberChannelsError
	StatusFile                  = engine.FileError
	StatusStreamParameterNotSet = engine.StreamParameterNotSet
	StatusNotEnabled            = engine.NotEnabledError
	StatusBadStreamParameter    = engine.BadStreamParameterWarning
)

// IsSuccess reports whether s is StatusOK.
func IsSuccess(s Status) bool {
	return s == StatusOK
}

// StatusOf extracts the status code carried by err. A nil error is
// StatusOK; an error without a status is StatusUnspecified.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusUnspecified
}
