package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	t.Run("deterministic for equal configs", func(t *testing.T) {
		a := RequestConfig{URL: "/users", Params: map[string]string{"a": "1", "b": "2"}}
		b := RequestConfig{URL: "/users", Params: map[string]string{"b": "2", "a": "1"}}

		fa, err := Fingerprint(&a)
		require.NoError(t, err)
		fb, err := Fingerprint(&b)
		require.NoError(t, err)
		assert.Equal(t, fa, fb)
		assert.Len(t, fa, 64)
	})

	t.Run("nested bodies are order independent", func(t *testing.T) {
		first := map[string]any{}
		first["z"] = map[string]any{"y": 1, "x": 2}
		first["a"] = []int{1, 2}

		second := map[string]any{}
		second["a"] = []int{1, 2}
		second["z"] = map[string]any{"x": 2, "y": 1}

		fa, err := Fingerprint(&RequestConfig{URL: "/q", Method: "POST", Body: first})
		require.NoError(t, err)
		fb, err := Fingerprint(&RequestConfig{URL: "/q", Method: "POST", Body: second})
		require.NoError(t, err)
		assert.Equal(t, fa, fb)
	})

	t.Run("ignores adapter and method case", func(t *testing.T) {
		plain := RequestConfig{URL: "/users"}
		hooked := RequestConfig{
			URL:    "/users",
			Method: "get",
			Adapter: func(ctx context.Context, cfg *RequestConfig) (*Response, error) {
				return nil, nil
			},
		}

		fa, err := Fingerprint(&plain)
		require.NoError(t, err)
		fb, err := Fingerprint(&hooked)
		require.NoError(t, err)
		assert.Equal(t, fa, fb)
	})

	t.Run("different requests differ", func(t *testing.T) {
		fa, err := Fingerprint(&RequestConfig{URL: "/users", Params: map[string]string{"page": "1"}})
		require.NoError(t, err)
		fb, err := Fingerprint(&RequestConfig{URL: "/users", Params: map[string]string{"page": "2"}})
		require.NoError(t, err)
		fc, err := Fingerprint(&RequestConfig{URL: "/users", Method: "POST", Params: map[string]string{"page": "1"}})
		require.NoError(t, err)

		assert.NotEqual(t, fa, fb)
		assert.NotEqual(t, fa, fc)
	})

	t.Run("non-serializable body fails", func(t *testing.T) {
		_, err := Fingerprint(&RequestConfig{URL: "/users", Body: make(chan int)})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFingerprint)

		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, ErrorTypeFingerprint, fetchErr.Type)
	})
}
