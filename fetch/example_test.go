package fetch_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/birbparty/birb-fetch/fetch"
)

func ExampleUse() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"name":"Alice"}`)
	}))
	defer srv.Close()

	rt, _ := fetch.NewRuntime(fetch.DefaultConfig().
		WithBaseURL(srv.URL).
		WithObserver(&fetch.NoopObserver{}))

	ctx := context.Background()
	hook := fetch.Use[map[string]string](ctx, rt, fetch.URL("/users/1"))
	hook.Wait(ctx)

	fmt.Println(hook.State().Data["name"])
	// Output: Alice
}

func ExampleRuntime_SerializeCache() {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `{"name":"Bob"}`)
	}))
	defer srv.Close()

	ctx := context.Background()
	cfg := func(mode fetch.Mode) *fetch.Config {
		return fetch.DefaultConfig().
			WithBaseURL(srv.URL).
			WithMode(mode).
			WithObserver(&fetch.NoopObserver{})
	}

	server, _ := fetch.NewRuntime(cfg(fetch.ModeServer))
	fetch.Use[map[string]string](ctx, server, fetch.URL("/users/2"))
	dump, _ := server.SerializeCache(ctx)

	client, _ := fetch.NewRuntime(cfg(fetch.ModeBrowser))
	client.LoadCache(ctx, dump)
	hook := fetch.Use[map[string]string](ctx, client, fetch.URL("/users/2"))
	hook.Wait(ctx)

	fmt.Println(hook.State().Data["name"], hits.Load())
	// Output: Bob 1
}
