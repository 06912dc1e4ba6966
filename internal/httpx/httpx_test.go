package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetText_DefaultsAndHeaders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ratesgen/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "fa", r.Header.Get("Accept-Language"))
		assert.Equal(t, "1", r.Header.Get("X-Default"))
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := New(5 * time.Second)
	c.Headers = map[string]string{"X-Default": "1"}
	body, err := c.GetText(t.Context(), srv.URL, map[string]string{"Accept-Language": "fa"})
	require.NoError(t, err)
	require.Equal(t, "hello", body)
}

func TestGetText_CallerUserAgentWins(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	body, err := New(5*time.Second).GetText(t.Context(), srv.URL, map[string]string{"User-Agent": BrowserUserAgent})
	require.NoError(t, err)
	require.Equal(t, BrowserUserAgent, body)
}

func TestGetText_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(5*time.Second).GetText(t.Context(), srv.URL, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
	require.Contains(t, err.Error(), "blocked")
}

func TestGetText_InvalidUTF8Replaced(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{'a', 0xff, 'b'})
	}))
	defer srv.Close()

	body, err := New(5*time.Second).GetText(t.Context(), srv.URL, nil)
	require.NoError(t, err)
	require.Equal(t, "a�b", body)
}
