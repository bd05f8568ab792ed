package fetch

import (
	"fmt"
)

// StatusError reports a non-2xx response from the remote host.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %s from %s: %s", e.Status, e.URL, e.Body)
	}
	return fmt.Sprintf("unexpected status %s from %s", e.Status, e.URL)
}

// AccessDeniedError indicates the host refused to serve the file: a 401/403,
// or an HTML page where a binary file was expected (typical of a Google
// Drive link that is not shared publicly).
type AccessDeniedError struct {
	URL      string
	Reason   string
	Response *StatusError
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied for %s: %s (make sure the file is shared with \"anyone with the link\")", e.URL, e.Reason)
}

func (e *AccessDeniedError) Unwrap() error {
	if e.Response == nil {
		return nil
	}
	return e.Response
}

// UnreachableError indicates the request never produced a complete response.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("host unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("host unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// ChecksumError indicates downloaded bytes did not match the expected SHA-256.
type ChecksumError struct {
	Path string
	Want string
	Got  string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: want sha256 %s, got %s", e.Path, e.Want, e.Got)
}
