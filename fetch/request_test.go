package fetch

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("bare URL", func(t *testing.T) {
		cfg := Normalize(URL("/users/1"))
		assert.Equal(t, "/users/1", cfg.URL)
		assert.Equal(t, http.MethodGet, cfg.Method)
	})

	t.Run("config method is upper-cased", func(t *testing.T) {
		cfg := Normalize(RequestConfig{URL: "/users", Method: "post"})
		assert.Equal(t, http.MethodPost, cfg.Method)
	})

	t.Run("caller's maps are not shared", func(t *testing.T) {
		in := RequestConfig{URL: "/users", Headers: map[string]string{"X-A": "1"}}
		cfg := Normalize(in)
		cfg.Headers["X-A"] = "2"
		assert.Equal(t, "1", in.Headers["X-A"])
	})
}

func TestRequestConfig_Merge(t *testing.T) {
	base := RequestConfig{
		Method:  http.MethodGet,
		URL:     "/users",
		Headers: map[string]string{"X-Base": "1"},
		Params:  map[string]string{"page": "1"},
		Timeout: time.Second,
	}

	t.Run("override fields win", func(t *testing.T) {
		merged := base.Merge(RequestConfig{
			Method: "put",
			Params: map[string]string{"page": "2"},
			Body:   map[string]string{"name": "Alice"},
		})

		assert.Equal(t, http.MethodPut, merged.Method)
		assert.Equal(t, "/users", merged.URL)
		assert.Equal(t, map[string]string{"page": "2"}, merged.Params)
		assert.Equal(t, map[string]string{"X-Base": "1"}, merged.Headers)
		assert.Equal(t, time.Second, merged.Timeout)
		assert.NotNil(t, merged.Body)
	})

	t.Run("maps are replaced, not merged", func(t *testing.T) {
		merged := base.Merge(RequestConfig{Headers: map[string]string{"X-Other": "2"}})
		assert.Equal(t, map[string]string{"X-Other": "2"}, merged.Headers)
	})

	t.Run("base is untouched", func(t *testing.T) {
		merged := base.Merge(RequestConfig{URL: "/other"})
		merged.Params["page"] = "9"

		assert.Equal(t, "/users", base.URL)
		assert.Equal(t, "1", base.Params["page"])
	})

	t.Run("empty override is identity", func(t *testing.T) {
		assert.Equal(t, base, base.Merge(RequestConfig{}))
	})
}
