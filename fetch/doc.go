// Package fetch binds HTTP requests to lifecycle state with a fingerprinted
// response cache and server-side prefetching.
//
// # Basic Usage
//
// Mount a hook and read its state once the request settles:
//
//	type User struct {
//	    Name string `json:"name"`
//	}
//
//	rt, err := fetch.NewRuntime(fetch.DefaultConfig().WithBaseURL("https://api.example.com"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	hook := fetch.Use[User](ctx, rt, fetch.URL("/users/1"))
//	hook.Wait(ctx)
//
//	state := hook.State()
//	if state.Error != nil {
//	    log.Printf("failed: %v", state.Error)
//	}
//	fmt.Println(state.Data.Name)
//
// A hook mounted without Manual(true) issues its request immediately, through
// the cache unless UseCache(false) is given. Execute re-issues it with
// overrides and bypasses the cache unless WithCache(true) is given:
//
//	hook.Execute(ctx, &fetch.RequestConfig{Params: map[string]string{"page": "2"}})
//
// # Lifecycle
//
// State.Loading turns true when a request is dispatched and false when it
// settles. A new request clears State.Error but keeps the previous
// State.Response until its own outcome arrives. Only the most recently issued
// request of a hook may update its state.
//
// # Caching
//
// Cached requests are keyed by Fingerprint, a hash of the canonical JSON of the
// request config. Hits are served without network I/O. Only successful
// responses are stored, as CachedResponse values without their config and
// request back-references.
//
// # Server Rendering
//
// A runtime in ModeServer does not run hook lifecycles. Each mounted hook
// registers a cache-routed prefetch instead, and SerializeCache waits for all
// of them before dumping the cache:
//
//	server, _ := fetch.NewRuntime(fetch.DefaultConfig().WithMode(fetch.ModeServer))
//	fetch.Use[User](ctx, server, fetch.URL("/users/1"))
//	dump, _ := server.SerializeCache(ctx)
//
//	// on the client
//	client, _ := fetch.NewRuntime(fetch.DefaultConfig())
//	client.LoadCache(ctx, dump)
//	fetch.Use[User](ctx, client, fetch.URL("/users/1")) // served from cache
//
// # Runtime
//
// Every hook is bound to a Runtime holding the active Client and Cache.
// Configure swaps them and Reset restores the defaults. The package-level
// Configure, ResetConfigure, LoadCache, SerializeCache and UseFetch operate on
// DefaultRuntime.
package fetch
