// Package graph is a thin client for the Google Drive v3 object graph:
// typed queries, metadata reads, folder and file creation, media transfer,
// and error classification.
package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Sentinel errors for classification.
// Use errors.Is(err, graph.ErrNotFound) to check.
var (
	ErrNotFound         = errors.New("graph: not found")
	ErrPermissionDenied = errors.New("graph: permission denied")
	ErrAuth             = errors.New("graph: authentication failed")
	ErrTransport        = errors.New("graph: transport error")
)

// GraphError wraps a sentinel error with the failed operation, the HTTP
// status code (0 when no response was received), and the API message.
type GraphError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()

	cause error
}

func (e *GraphError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("graph: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("graph: %s: %s", e.Op, e.Message)
}

func (e *GraphError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Err}
	}

	return []error{e.Err, e.cause}
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return nil
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrPermissionDenied
	case code == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrTransport
	}
}

// classify converts an error returned by the Drive library into a
// *GraphError. Credential failures raised by the auth transport keep
// ErrAuth; API errors are classified by status; anything else, including
// context cancellation, is a transport failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var ge *GraphError
	if errors.As(err, &ge) {
		return err
	}

	if errors.Is(err, ErrAuth) {
		return &GraphError{Op: op, Message: err.Error(), Err: ErrAuth, cause: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Code)
		}

		return &GraphError{
			Op:         op,
			StatusCode: apiErr.Code,
			Message:    msg,
			Err:        classifyStatus(apiErr.Code),
			cause:      err,
		}
	}

	msg := err.Error()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		msg = "request canceled: " + msg
	}

	return &GraphError{Op: op, Message: msg, Err: ErrTransport, cause: err}
}
