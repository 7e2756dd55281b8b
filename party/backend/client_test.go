package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/liuran001/WatchParty-Go/party/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAddress struct {
	mu    sync.Mutex
	value string
}

func (f *fixedAddress) Get(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *fixedAddress) Set(_ context.Context, v string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	return nil
}

func (f *fixedAddress) Reset(ctx context.Context) error { return f.Set(ctx, "") }
func (f *fixedAddress) Default() string                 { return "" }

// wsAddress turns an httptest URL into the ws:// form users configure.
func wsAddress(srv *httptest.Server) *fixedAddress {
	return &fixedAddress{value: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func newTestClient(srv *httptest.Server, addr *fixedAddress, retries int) *Client {
	return New(addr, Options{
		Timeout:    2 * time.Second,
		MaxRetries: retries,
		MinBackoff: time.Millisecond,
		MaxBackoff: 2 * time.Millisecond,
		HTTPClient: srv.Client(),
	}, nil)
}

func TestCheckHealth(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	addr := wsAddress(srv)
	addr.value += "/socket?token=abc"
	client := newTestClient(srv, addr, 0)

	require.NoError(t, client.CheckHealth(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	err := client.CheckHealth(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnhealthy)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusServiceUnavailable, reqErr.Status)
}

func TestCheckHealthBadURL(t *testing.T) {
	client := New(&fixedAddress{value: "not a url"}, Options{}, nil)
	err := client.CheckHealth(context.Background())
	assert.ErrorIs(t, err, ErrBadServerURL)
}

func TestCheckHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := wsAddress(srv)
	srv.Close()

	client := New(addr, Options{Timeout: time.Second}, nil)
	err := client.CheckHealth(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadServerURL)
	assert.NotErrorIs(t, err, ErrUnhealthy)
}

func TestListGamesShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "bare array",
			body: `[{"roomId":"espn-nfl-1","title":"Bills at Jets","clients":3},{"roomId":"prime-B08XYZ123"}]`,
			want: []string{"espn-nfl-1", "prime-B08XYZ123"},
		},
		{
			name: "envelope",
			body: `{"games":[{"roomId":"peacock-live-42","home":"Jets","away":"Bills"}]}`,
			want: []string{"peacock-live-42"},
		},
		{
			name: "drops invalid records",
			body: `[{"roomId":""},{},{"roomId":"espn-nba-7","clients":-1},"junk",{"roomId":"espn-nba-8"}]`,
			want: []string{"espn-nba-8"},
		},
		{
			name: "keeps unclassifiable ids",
			body: `[{"roomId":"lobby","title":"Lobby","clients":4},{"roomId":"room_1","clients":2},{"roomId":"foo-bar"}]`,
			want: []string{"lobby", "room_1", "foo-bar"},
		},
		{
			name: "drops oversized ids",
			body: `[{"roomId":"` + strings.Repeat("a", 257) + `"},{"roomId":"lobby"}]`,
			want: []string{"lobby"},
		},
		{
			name: "empty envelope",
			body: `{}`,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/games", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			games, err := newTestClient(srv, wsAddress(srv), 0).ListGames(context.Background())
			require.NoError(t, err)

			ids := make([]string, 0, len(games))
			for _, g := range games {
				ids = append(ids, g.RoomID)
			}
			assert.Equal(t, tt.want, ids)
			for _, g := range games {
				if _, ok := room.Default.Get(strings.SplitN(g.RoomID, "-", 2)[0]); ok {
					continue
				}
				desc := room.Describe(g.RoomID)
				assert.Equal(t, room.PlatformGeneric, desc.Platform)
				assert.Empty(t, desc.URL)
			}
		})
	}
}

func TestListGamesRejectsNonList(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`"nope"`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, wsAddress(srv), 3).ListGames(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load(), "malformed bodies are not retried")
}

func TestListGamesRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"roomId":"espn-mlb-5"}]`))
	}))
	defer srv.Close()

	games, err := newTestClient(srv, wsAddress(srv), 2).ListGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestSendFeedback(t *testing.T) {
	var got Feedback
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/feedback", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	fb := Feedback{ID: "f-1", Message: "hello", RoomID: "espn-nfl-1", CreatedAt: time.Unix(0, 0).UTC()}
	require.NoError(t, newTestClient(srv, wsAddress(srv), 0).SendFeedback(context.Background(), fb))
	assert.Equal(t, fb, got)
}

func TestSendFeedbackClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestClient(srv, wsAddress(srv), 3).SendFeedback(context.Background(), Feedback{ID: "x", Message: "m"})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	assert.EqualValues(t, 1, calls.Load())
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Big Game", GameRecord{Title: " Big Game ", Home: "A", Away: "B"}.DisplayTitle("x"))
	assert.Equal(t, "Bills @ Jets", GameRecord{Home: "Jets", Away: "Bills"}.DisplayTitle("x"))
	assert.Equal(t, "NFL game 1", GameRecord{Home: "Jets"}.DisplayTitle("NFL game 1"))
}
