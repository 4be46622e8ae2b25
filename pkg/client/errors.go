package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// FailureKind classifies why a backend call failed.
type FailureKind int

const (
	// FailureServer means the backend answered with a structured error.
	FailureServer FailureKind = iota + 1
	// FailureNetwork means no response was received.
	FailureNetwork
	// FailureUnknown covers everything else.
	FailureUnknown
)

// Failure codes surfaced to screens.
const (
	CodeServerError  = "SERVER_ERROR"
	CodeNetworkError = "NETWORK_ERROR"
	CodeUnknownError = "UNKNOWN_ERROR"
)

const (
	msgServerError  = "Something went wrong on the server."
	msgNetworkError = "Unable to reach server. Check your internet connection."
	msgUnknownError = "An unexpected error occurred."
)

// Failure is the normalized form of a backend error, safe to show to the user.
type Failure struct {
	Kind    FailureKind
	Code    string
	Message string
}

// Normalize classifies err as a server-structured, network or unknown failure.
// Every backend call site funnels its errors through here.
func Normalize(err error) Failure {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		f := Failure{Kind: FailureServer, Code: httpErr.Code, Message: httpErr.Message}
		if f.Code == "" {
			f.Code = CodeServerError
		}
		if f.Message == "" {
			f.Message = msgServerError
		}
		return f
	}
	if isNetwork(err) {
		return Failure{Kind: FailureNetwork, Code: CodeNetworkError, Message: msgNetworkError}
	}
	msg := msgUnknownError
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Failure{Kind: FailureUnknown, Code: CodeUnknownError, Message: msg}
}

func isNetwork(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
