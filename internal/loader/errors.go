package loader

import "fmt"

// resourceExhaustedError wraps accelerator out-of-memory reported by the
// runtime during the full-model strategy. A partially loaded model is unsafe
// to serve from, so the process entry point is expected to convert this into
// a non-zero exit.
type resourceExhaustedError struct{ cause error }

func (e resourceExhaustedError) Error() string {
	return "accelerator out of memory while loading model: " + e.cause.Error()
}

func (e resourceExhaustedError) Unwrap() error { return e.cause }

// IsResourceExhausted reports whether err is the fatal out-of-memory kind.
func IsResourceExhausted(err error) bool {
	_, ok := err.(resourceExhaustedError)
	return ok
}

// notImplementedError signals a recognized but unbuilt strategy.
type notImplementedError struct{ what string }

func (e notImplementedError) Error() string { return e.what + " support is in research and development" }

// IsNotImplemented reports whether err indicates an unbuilt feature, as
// opposed to an unsupported configuration value.
func IsNotImplemented(err error) bool {
	_, ok := err.(notImplementedError)
	return ok
}

// unsupportedConfigurationError signals an unrecognized model-type value.
type unsupportedConfigurationError struct{ got string }

func (e unsupportedConfigurationError) Error() string {
	return fmt.Sprintf("unsupported model type %q, expected one of: %s", e.got, supportedModelTypes)
}

func errUnsupportedConfiguration(got string) error {
	return unsupportedConfigurationError{got: got}
}

// IsUnsupportedConfiguration reports whether err indicates an unrecognized
// model-type value.
func IsUnsupportedConfiguration(err error) bool {
	_, ok := err.(unsupportedConfigurationError)
	return ok
}
