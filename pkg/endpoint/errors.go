package endpoint

import "fmt"

// EndpointError reports a failed interaction with a SPARQL endpoint. A
// non-zero StatusCode means the endpoint answered with a protocol error;
// otherwise the request itself failed.
type EndpointError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *EndpointError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("endpoint %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("endpoint %s: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("endpoint %s: %s", e.Endpoint, e.Message)
}

func (e *EndpointError) Unwrap() error {
	return e.Err
}
