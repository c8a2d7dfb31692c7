package apiclient

import "fmt"

// HTTPError is a failed exchange with the backend. Status is 0 when no
// response was received (connection refused, DNS failure, timeout). Body holds
// the raw response payload, if any.
type HTTPError struct {
	Status int
	URL    string
	Body   []byte
	Err    error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
		}
		return fmt.Sprintf("request to %s failed", e.URL)
	}
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
}

// Unwrap returns the underlying transport error, if any.
func (e *HTTPError) Unwrap() error {
	return e.Err
}
