package shared

import "fmt"

// ConfigurationError reports a missing or unusable startup setting. It is
// always fatal.
type ConfigurationError struct {
	Variable string
	Message  string
	Cause    error
}

func (e ConfigurationError) Error() string {
	message := e.Message
	if e.Variable != "" {
		message = fmt.Sprintf("%s %s", e.Variable, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", message)
}

func (e ConfigurationError) Unwrap() error {
	return e.Cause
}
