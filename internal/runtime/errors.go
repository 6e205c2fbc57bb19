package runtime

// outOfMemoryError signals accelerator memory exhaustion reported by the
// runtime while loading weights.
type outOfMemoryError struct{ msg string }

func (e outOfMemoryError) Error() string { return e.msg }

// ErrOutOfMemory constructs an out-of-memory error.
func ErrOutOfMemory(msg string) error {
	if msg == "" {
		msg = "accelerator out of memory"
	}
	return outOfMemoryError{msg: msg}
}

// IsOutOfMemory reports whether err indicates accelerator memory exhaustion.
func IsOutOfMemory(err error) bool {
	_, ok := err.(outOfMemoryError)
	return ok
}

// unavailableError signals that the runtime itself cannot be reached (e.g.,
// the runner sidecar is not running) so callers can map it to 503.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates an unreachable runtime.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}
