package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxSuffix bounds the "name (n).ext" search before giving up on a target
const maxSuffix = 1000

// SinkError wraps a failure of one sink operation
type SinkError struct {
	Operation string
	Path      string
	Err       error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("download %s failed for %s: %v", e.Operation, e.Path, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the retrieval route answers with a non-200 status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// fetch opens the body of req.URL. The caller closes it.
func fetch(ctx context.Context, client *http.Client, req Request) (io.ReadCloser, int64, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, 0, &SinkError{Operation: "request", Path: req.RelativePath, Err: err}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, 0, &SinkError{Operation: "fetch", Path: req.RelativePath, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, &SinkError{Operation: "fetch", Path: req.RelativePath, Err: &StatusError{StatusCode: resp.StatusCode}}
	}
	return resp.Body, resp.ContentLength, nil
}
