package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/liuran001/WatchParty-Go/party"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_, _ = io.WriteString(w, "ok")
		case "/games":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"roomId":"espn-nfl-401547417","title":"Bears at Packers","clients":3}]`)
		case "/feedback":
			w.WriteHeader(http.StatusAccepted)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, backendURL string, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	content := fmt.Sprintf(`ListenAddr = 127.0.0.1:0
PublicURL = http://localhost:8095
DefaultServerInsecure = %s
Database = %s
LogDir =
LogLevel = error
PollIntervalSec = 60
%s`, strings.Replace(backendURL, "http://", "ws://", 1), filepath.Join(dir, "watchparty.db"), extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestAppLifecycle(t *testing.T) {
	backendSrv := fakeBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, writeConfig(t, backendSrv.URL, ""), BuildInfo{BinVersion: "test"})
	require.NoError(t, err)
	assert.Equal(t, []string{"backend"}, a.Feedback.Notifiers())

	require.NoError(t, a.Start(ctx))
	require.NotEmpty(t, a.Addr())

	require.Eventually(t, func() bool {
		return a.Snapshot.Health().State == party.HealthOnline
	}, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(a.Snapshot.Games()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get("http://" + a.Addr() + "/api/status")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Bears at Packers")

	resp, err = http.Post("http://"+a.Addr()+"/api/feedback", "application/json", strings.NewReader(`{"message":"works"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	count, err := a.DB.CountFeedback(ctx, party.FeedbackSent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, a.Shutdown(shutdownCtx))

	select {
	case err := <-a.Done():
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("http server did not stop")
	}
}

func TestAppStartListenError(t *testing.T) {
	backendSrv := fakeBackend(t)
	ctx := context.Background()

	a, err := New(ctx, writeConfig(t, backendSrv.URL, ""), BuildInfo{})
	require.NoError(t, err)
	defer func() { _ = a.Shutdown(ctx) }()

	a.Config.Set("ListenAddr", "256.0.0.1:bad")
	assert.Error(t, a.Start(ctx))
}

func TestNewMissingConfig(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing.ini"), BuildInfo{})
	assert.Error(t, err)
}

func TestBuildNotifiers(t *testing.T) {
	token := "123456789:" + strings.Repeat("A", 35)

	tests := []struct {
		name    string
		ini     string
		want    []string
		wantErr bool
	}{
		{
			name: "backend by default",
			want: []string{"backend"},
		},
		{
			name: "backend disabled",
			ini:  "[notify.backend]\nenabled = false\n",
			want: nil,
		},
		{
			name: "telegram from top-level keys",
			ini:  fmt.Sprintf("TelegramBotToken = %s\nTelegramChatID = 42\n", token),
			want: []string{"backend", "telegram"},
		},
		{
			name: "telegram explicitly disabled",
			ini:  fmt.Sprintf("TelegramBotToken = %s\nTelegramChatID = 42\n[notify.telegram]\nenabled = false\n", token),
			want: []string{"backend"},
		},
		{
			name: "telegram from sink section",
			ini:  fmt.Sprintf("[notify.telegram]\ntoken = %s\nchat_id = 7\n", token),
			want: []string{"backend", "telegram"},
		},
		{
			name:    "telegram enabled without credentials",
			ini:     "[notify.telegram]\nenabled = true\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(context.Background(), writeConfig(t, "http://127.0.0.1:1", tt.ini), BuildInfo{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = a.Shutdown(context.Background()) }()
			assert.Equal(t, tt.want, nilIfEmpty(a.Feedback.Notifiers()))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
