package lbclient

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError means the request never produced an HTTP response
// (connection refused, timeout, cancelled, undecodable body).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: transport: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// RejectionError means the load balancer answered with a non-2xx status.
// Message is the response body as sent by the server.
type RejectionError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rejected: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s: rejected: %d: %s", e.Op, e.Status, e.Message)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// IsNotFound reports a 404 rejection.
func IsNotFound(err error) bool {
	var re *RejectionError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}

// IsConflict reports a 409 rejection (e.g. duplicate worker host).
func IsConflict(err error) bool {
	var re *RejectionError
	return errors.As(err, &re) && re.Status == http.StatusConflict
}

// Message returns the user-facing text of err: the server message for a
// rejection, the error string otherwise.
func Message(err error) string {
	var re *RejectionError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
