// Package delivery pushes a rendered invoice through exactly one sink and
// reports a Success or a classified Failure. Channels never panic or return
// raw transport errors to their callers.
package delivery

import "fmt"

// Outcome is either Success or Failure.
type Outcome interface {
	Summary() string
	isOutcome()
}

// Success carries the user-facing confirmation.
type Success struct {
	Message string `json:"message"`
	// Location is where the artifact ended up, when the channel knows it.
	Location string `json:"location,omitempty"`
}

func (s Success) Summary() string { return s.Message }
func (Success) isOutcome()        {}

// Kind classifies a delivery failure.
type Kind string

const (
	KindTimeout            Kind = "timeout"
	KindNetworkUnreachable Kind = "network_unreachable"
	KindCORSRejected       Kind = "cors_rejected"
	KindHTTPStatus         Kind = "http_status"
	KindUnauthenticated    Kind = "unauthenticated"
	KindMisconfigured      Kind = "misconfigured"
	KindIO                 Kind = "io"
)

// Failure is a classified, user-facing delivery error.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	// Status is the HTTP status for KindHTTPStatus and KindUnauthenticated.
	Status int   `json:"status,omitempty"`
	Err    error `json:"-"`
}

func (f Failure) Summary() string { return f.Message }
func (Failure) isOutcome()        {}

func (f Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f Failure) Unwrap() error { return f.Err }

// AsFailure reports whether o is a Failure.
func AsFailure(o Outcome) (Failure, bool) {
	f, ok := o.(Failure)
	return f, ok
}
