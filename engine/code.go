package engine

import "fmt"

// Code is the status returned by engine operations. Values match the
// WebRTC AudioProcessing error table so that codes pass through the bridge
// unchanged.
type Code int

// Engine status codes.
const (
	NoError                   Code = 0
	UnspecifiedError          Code = -1
	CreationFailedError       Code = -2
	UnsupportedComponentError Code = -3
	UnsupportedFunctionError  Code = -4
	NullPointerError          Code = -5
	BadParameterError         Code = -6
	BadSampleRateError        Code = -7
	BadDataLengthError        Code = -8
	BadNumberChannelsError    Code = -9
	FileError                 Code = -10
	StreamParameterNotSet     Code = -11
	NotEnabledError           Code = -12

	// BadStreamParameterWarning is returned when a stream parameter was
	// out of range and has been clamped. Processing still happens.
	BadStreamParameterWarning Code = -13
)

var codeNames = map[Code]string{
	NoError:                   "no error",
	UnspecifiedError:          "unspecified error",
	CreationFailedError:       "creation failed",
	UnsupportedComponentError: "unsupported component",
	UnsupportedFunctionError:  "unsupported function",
	NullPointerError:          "null pointer",
	BadParameterError:         "bad parameter",
	BadSampleRateError:        "bad sample rate",
	BadDataLengthError:        "bad data length",
	BadNumberChannelsError:    "bad number of channels",
	FileError:                 "file error",
	StreamParameterNotSet:     "stream parameter not set",
	NotEnabledError:           "not enabled",
	BadStreamParameterWarning: "bad stream parameter warning",
}

// String returns a short description of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error implements the error interface so a Code can be returned and
// matched with errors.As / errors.Is.
func (c Code) Error() string {
	return fmt.Sprintf("apm: %s (%d)", c.String(), int(c))
}

// IsSuccess reports whether c is NoError. Warnings are not successes.
func (c Code) IsSuccess() bool {
	return c == NoError
}
