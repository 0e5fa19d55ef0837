package tool

import "fmt"

// RegistryError is the error type returned by Registry operations,
// grounded on the teacher's ToolRegistryError (pkg/tools/registry.go).
type RegistryError struct {
	Action  string
	Message string
	Err     error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool registry: %s: %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("tool registry: %s: %s", e.Action, e.Message)
}

func (e *RegistryError) Unwrap() error { return e.Err }

func newRegistryError(action, message string, err error) *RegistryError {
	return &RegistryError{Action: action, Message: message, Err: err}
}

// Sentinels used with errors.Is against RegistryError.Err.
var (
	ErrAlreadyRegistered = fmt.Errorf("tool already registered")
	ErrNotFound          = fmt.Errorf("tool not found")
)
