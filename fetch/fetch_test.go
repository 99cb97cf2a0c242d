package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGet_Headers verifies the identifying headers go out on every request.
func TestGet_Headers(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := NewClient(0).Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, UserAgent, gotUA)
	assert.Contains(t, gotAccept, "text/html")
	assert.Contains(t, gotAccept, "application/json")
}

// TestGet_NonSuccessStatus verifies non-2xx responses are errors.
func TestGet_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(0).Get(context.Background(), server.URL)

	assert.ErrorContains(t, err, "404")
}

// TestGet_ContextCancellation verifies an aborted context aborts the fetch.
func TestGet_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := NewClient(5 * time.Second).Get(ctx, server.URL)

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "cancel should abort well before the timeout")
}
