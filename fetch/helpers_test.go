package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// upstream is a test API that counts the requests it serves.
type upstream struct {
	*httptest.Server
	hits atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}

	mux := http.NewServeMux()
	mux.HandleFunc("/users/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user{ID: 1, Name: "Alice"})
	})
	mux.HandleFunc("/users/2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user{ID: 2, Name: "Bob"})
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"method":       r.Method,
			"query":        r.URL.RawQuery,
			"body":         string(body),
			"content_type": r.Header.Get("Content-Type"),
			"x_test":       r.Header.Get("X-Test"),
		})
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "hello")
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
		io.WriteString(w, "late")
	})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"boom"}`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"not found"}`)
	})

	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) Hits() int {
	return int(u.hits.Load())
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig(baseURL string) *Config {
	return DefaultConfig().
		WithBaseURL(baseURL).
		WithTimeout(2 * time.Second).
		WithObserver(&NoopObserver{}).
		WithLogger(quietLogger())
}

func newTestRuntime(t *testing.T, u *upstream) *Runtime {
	t.Helper()
	rt, err := NewRuntime(testConfig(u.URL))
	require.NoError(t, err, "failed to create runtime")
	return rt
}

// recordingClient is a Client that records every config it receives and
// never invokes adapters.
type recordingClient struct {
	mu      sync.Mutex
	calls   []RequestConfig
	respond func(cfg *RequestConfig) (*Response, error)
}

func (c *recordingClient) Do(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, *cfg)
	c.mu.Unlock()

	if c.respond != nil {
		return c.respond(cfg)
	}
	return jsonResponse(`{"id":1,"name":"Alice"}`), nil
}

func (c *recordingClient) Calls() []RequestConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RequestConfig(nil), c.calls...)
}

func (c *recordingClient) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func jsonResponse(body string) *Response {
	return &Response{
		Status:     http.StatusOK,
		StatusText: "OK",
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Data:       []byte(body),
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
