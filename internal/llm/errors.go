package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes client failures so the UI can decide how to render
// them without string matching.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	// ErrKindNetwork covers transport failures: unreachable host, timeout,
	// connection reset.
	ErrKindNetwork
	// ErrKindAPI covers non-2xx responses from a reachable back-end.
	ErrKindAPI
	// ErrKindParse covers responses that arrived but could not be decoded.
	ErrKindParse
	// ErrKindModelMismatch is advisory only; see ModelWarning.
	ErrKindModelMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindNetwork:
		return "network"
	case ErrKindAPI:
		return "api"
	case ErrKindParse:
		return "parse"
	case ErrKindModelMismatch:
		return "model-mismatch"
	default:
		return "unknown"
	}
}

// ClientError is a normalized back-end failure.
type ClientError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// KindOf extracts the kind from err, ErrKindUnknown when err is not a
// ClientError.
func KindOf(err error) ErrorKind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ErrKindUnknown
}

// ModelWarning reports that the configured model does not appear to be
// installed. It is advisory: requests proceed regardless, so it is not an
// error value. Err is set when the check itself could not run.
type ModelWarning struct {
	Model     string
	Related   []string
	Installed []string
	Err       error
}

func (w *ModelWarning) Kind() ErrorKind { return ErrKindModelMismatch }

// Message renders the warning for the status line and the debug log.
func (w *ModelWarning) Message() string {
	switch {
	case w.Err != nil:
		return fmt.Sprintf("could not verify model %q: %v", w.Model, w.Err)
	case len(w.Related) > 0:
		return fmt.Sprintf("model %q not installed; related models: %s", w.Model, strings.Join(w.Related, ", "))
	case len(w.Installed) > 0:
		return fmt.Sprintf("model %q not installed; available: %s", w.Model, strings.Join(w.Installed, ", "))
	default:
		return fmt.Sprintf("model %q not installed; no models installed", w.Model)
	}
}
