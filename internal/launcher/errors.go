package launcher

import "fmt"

// The error types below form the launcher's failure taxonomy. Components wrap
// causes with fmt.Errorf("...: %w", err) as usual; these types mark the class
// of failure so the CLI can present it sensibly.

// NetworkError is a transport failure or a non-2xx response from a remote
// service. Body carries the response body when one was read.
type NetworkError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s failed: status %d - %s", e.URL, e.Status, e.Body)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError is a response that arrived but could not be understood:
// malformed JSON, or a body missing a required field.
type ProtocolError struct {
	Endpoint string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("invalid response from %s: %v", e.Endpoint, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// NotFoundError reports an absent version, account, or file.
type NotFoundError struct {
	Kind string // "version", "account", "file"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IntegrityError is a digest mismatch that survived verification.
type IntegrityError struct {
	Path string
	Algo string
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s mismatch: want %s, got %s", e.Path, e.Algo, e.Want, e.Got)
}

// ConfigurationError reports missing local prerequisites: no signed-in
// account, unset java path, and the like.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// ProcessError is a failure to spawn or supervise the game process.
type ProcessError struct {
	Err error
}

func (e *ProcessError) Error() string { return fmt.Sprintf("game process: %v", e.Err) }

func (e *ProcessError) Unwrap() error { return e.Err }
