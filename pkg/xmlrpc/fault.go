package xmlrpc

import (
	"errors"
	"fmt"
)

// DefaultFaultCode is reported when a fault omits faultCode.
const DefaultFaultCode = -1

// DefaultFaultMessage is reported when a fault omits faultString.
const DefaultFaultMessage = "XML-RPC fault"

var (
	// ErrMalformedResponse wraps every failure to read a response document.
	ErrMalformedResponse = errors.New("malformed xml-rpc response")
)

// Fault is the error returned when the server answers with a <fault>.
type Fault struct {
	Code    int    `json:"faultCode" yaml:"faultCode"`
	Message string `json:"faultString" yaml:"faultString"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("xml-rpc fault %d: %s", f.Code, f.Message)
}

// IsFault reports whether err carries a Fault and returns it.
func IsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
