package nexon

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_notifier/internal/domain"
)

const feedBody = `[
  {"id": 101, "name": "v250 Patch Notes", "summary": "Patch summary", "category": "update",
   "liveDate": "2024-05-01T14:00:00Z", "imageThumbnail": "/maplestory/cms/thumb.png"},
  {"id": "evt-7", "name": "Spring Event", "summary": "Event summary", "category": "events",
   "liveDate": "2024-04-20T00:00:00Z", "imageThumbnail": "https://cdn.example.com/evt.png",
   "slug": "spring-event"}
]`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSource(url string, attempts int) *Source {
	return New(Config{
		URL:            url,
		Timeout:        2 * time.Second,
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, testLogger())
}

func TestFetchPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	posts, err := newTestSource(srv.URL, 1).FetchPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, domain.PostID("101"), first.ID)
	assert.Equal(t, "v250 Patch Notes", first.Name)
	assert.Equal(t, "Patch summary", first.Summary)
	assert.Equal(t, "update", first.Category)
	assert.Equal(t, "2024-05-01T14:00:00Z", first.LiveDate)
	assert.Equal(t, "/maplestory/cms/thumb.png", first.ImageThumbnail)
	assert.Equal(t, domain.PostID("evt-7"), posts[1].ID)
	assert.JSONEq(t, `{"id": "evt-7", "name": "Spring Event", "summary": "Event summary",
		"category": "events", "liveDate": "2024-04-20T00:00:00Z",
		"imageThumbnail": "https://cdn.example.com/evt.png", "slug": "spring-event"}`, string(posts[1].Raw))
}

func TestFetchPosts_EmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	posts, err := newTestSource(srv.URL, 1).FetchPosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetchPosts_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL, 1).FetchPosts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status: 502")
}

func TestFetchPosts_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL, 1).FetchPosts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestFetchPosts_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestSource(url, 1).FetchPosts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute request")
}

func TestFetchPosts_SingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL, 0).FetchPosts(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchPosts_RetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	posts, err := newTestSource(srv.URL, 3).FetchPosts(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPosts_RetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL, 2).FetchPosts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestCalculateBackoff(t *testing.T) {
	s := New(Config{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}, testLogger())

	assert.Equal(t, time.Second, s.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, s.calculateBackoff(2))
	assert.Equal(t, 4*time.Second, s.calculateBackoff(3))
	assert.Equal(t, 5*time.Second, s.calculateBackoff(4))
}
