package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// Route is a canned upstream response.
type Route struct {
	Status      int
	Body        []byte
	ContentType string
	// Delay holds the response back, or until the request is cancelled.
	Delay time.Duration
}

// FixtureServer is an httptest server answering canned routes and counting hits.
type FixtureServer struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]Route
	hits   map[string]int
}

// NewFixtureServer starts a server for routes keyed by URL path. Unknown
// paths answer 404. The server is closed when the test ends.
func NewFixtureServer(t testing.TB, routes map[string]Route) *FixtureServer {
	t.Helper()

	fs := &FixtureServer{routes: make(map[string]Route), hits: make(map[string]int)}
	for path, route := range routes {
		fs.routes[path] = route
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.Close)

	return fs
}

// URLFor returns the absolute URL for path.
func (fs *FixtureServer) URLFor(path string) string {
	return fs.Server.URL + path
}

// SetRoute replaces the response for path.
func (fs *FixtureServer) SetRoute(path string, route Route) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.routes[path] = route
}

// Hits reports how many requests reached path.
func (fs *FixtureServer) Hits(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[path]
}

func (fs *FixtureServer) serve(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	route, ok := fs.routes[r.URL.Path]
	fs.hits[r.URL.Path]++
	fs.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if route.Delay > 0 {
		select {
		case <-time.After(route.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if route.ContentType != "" {
		w.Header().Set("Content-Type", route.ContentType)
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(route.Body)
}
