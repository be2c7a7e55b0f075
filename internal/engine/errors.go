package engine

import "fmt"

const (
	KindValidation = "validation"
	KindBusy       = "busy"
	KindRender     = "render"
)

// RequestError reports a missing or empty required request field.
type RequestError struct {
	Field string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *RequestError) ErrorKind() string { return KindValidation }

// FrameError wraps a failure while rendering or persisting one frame.
type FrameError struct {
	Frame int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

func (e *FrameError) ErrorKind() string { return KindRender }

type busyError struct{}

func (busyError) Error() string     { return "all job slots are busy" }
func (busyError) ErrorKind() string { return KindBusy }

// ErrBusy is returned when the pipeline already runs its maximum number
// of concurrent jobs.
var ErrBusy error = busyError{}
