// Package testutil provides testing utilities for the site cache.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockAsset defines the behavior for a mock origin asset response.
type MockAsset struct {
	StatusCode  int
	Body        string
	ContentType string
	Delay       time.Duration
}

// MockOrigin is a configurable mock origin server for testing. It stands in
// for both the site's own origin and third-party CDNs.
type MockOrigin struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	counts   map[string]int
}

// NewMockOrigin creates a new mock origin server. Unconfigured paths
// respond 404.
func NewMockOrigin() *MockOrigin {
	mock := &MockOrigin{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		counts:   make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.counts[r.URL.Path]++
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockOrigin) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockOrigin) Close() {
	m.server.Close()
}

// Reset clears all request counters.
func (m *MockOrigin) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[string]int)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockOrigin) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetAsset configures a simple asset response for a path.
func (m *MockOrigin) SetAsset(path string, asset MockAsset) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if asset.Delay > 0 {
			time.Sleep(asset.Delay)
		}

		if asset.ContentType != "" {
			w.Header().Set("Content-Type", asset.ContentType)
		}

		status := asset.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if asset.Body != "" {
			w.Write([]byte(asset.Body))
		}
	})
}

// SetPage configures an HTML page response for a path.
func (m *MockOrigin) SetPage(path, html string) {
	m.SetAsset(path, MockAsset{
		StatusCode:  http.StatusOK,
		Body:        html,
		ContentType: "text/html; charset=utf-8",
	})
}

// RequestCount returns the number of requests made to a path.
func (m *MockOrigin) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[path]
}

// TotalRequests returns the number of requests made to the server.
func (m *MockOrigin) TotalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.counts {
		total += n
	}
	return total
}
