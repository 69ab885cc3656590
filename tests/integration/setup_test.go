package integration

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/birbparty/birb-fetch/internal/cache"
	"github.com/birbparty/birb-fetch/tests/testutil"
)

var (
	testRedis *testutil.RedisContainer
	testCache *cache.RedisCache
)

// TestMain starts one Redis container for the package. In short mode no
// container is started and every test skips.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	rc, err := testutil.StartRedis(ctx)
	if err != nil {
		fmt.Printf("Failed to start redis: %v\n", err)
		os.Exit(1)
	}
	testRedis = rc

	cfg := cache.DefaultConfig()
	cfg.Backend = cache.BackendRedis
	cfg.Host = rc.Host
	cfg.Port = rc.Port
	cfg.KeyPrefix = "it:"
	cfg.DefaultTTL = 5 * time.Minute

	testCache, err = cache.NewRedisCache(cfg)
	if err != nil {
		fmt.Printf("Failed to connect to redis: %v\n", err)
		rc.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testCache.Close()
	rc.Terminate(ctx)
	os.Exit(code)
}

func requireRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	if testCache == nil {
		t.Skip("redis not available in short mode")
	}
	ns := testCache.Namespace(t.Name() + ":")
	t.Cleanup(func() { ns.Flush(context.Background()) })
	return ns
}

type upstream struct {
	*httptest.Server
	hits atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/posts":
			io.WriteString(w, `[{"id":1,"title":"hello"},{"id":2,"title":"world"}]`)
		case "/profile":
			io.WriteString(w, `{"name":"Alice"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
		}
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) Hits() int {
	return int(u.hits.Load())
}
