// Package partition provides named request/response snapshot partitions
// with Redis backend. Partition names are versioned; stale names are
// dropped wholesale during worker activation, which is the only eviction
// mechanism.
package partition

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Entry is a cached response snapshot. Entries carry no expiry: they stay
// authoritative until overwritten by a successful revalidation or dropped
// with their partition.
type Entry struct {
	// URL is the canonical request URL the snapshot answers.
	URL string `json:"url"`

	// Data is the response body
	Data []byte `json:"data"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Header is the response headers
	Header http.Header `json:"header"`

	// FetchedAt is when the snapshot was taken. Reporting only; never
	// consulted for invalidation.
	FetchedAt time.Time `json:"fetched_at"`
}

// ResponseToEntry snapshots an HTTP response into an Entry. The response
// body is single-read, so it is consumed here and restored for the caller.
func ResponseToEntry(resp *http.Response) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()

	// Restore body for caller
	resp.Body = io.NopCloser(bytes.NewReader(body))

	reqURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		reqURL = resp.Request.URL.String()
	}

	return &Entry{
		URL:        reqURL,
		Data:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		FetchedAt:  time.Now(),
	}, nil
}

// Response converts the snapshot back into an HTTP response.
func (e *Entry) Response() *http.Response {
	return &http.Response{
		StatusCode:    e.StatusCode,
		Status:        fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode)),
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Data)),
		ContentLength: int64(len(e.Data)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
	}
}
