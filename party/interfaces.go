package party

import "context"

// Logger is the minimal logging abstraction used across modules.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Config provides typed access to configuration values.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat64(key string) float64
}

// ServerAddress resolves the watch-party backend base address.
// Implementations fall back to a built-in default when nothing is stored.
type ServerAddress interface {
	Get(ctx context.Context) string
	Set(ctx context.Context, value string) error
	Reset(ctx context.Context) error
	Default() string
}

// Renderer receives polling results for display.
type Renderer interface {
	RenderHealth(report HealthReport)
	RenderGames(games []GameView)
}

// WorkerPool limits concurrency for background tasks.
type WorkerPool interface {
	Submit(task func()) error
	SubmitWait(task func() error) error
	SubmitWaitContext(ctx context.Context, task func() error) error
	Shutdown(ctx context.Context) error
	Size() int
}

// SettingsRepository persists small key/value settings.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// FeedbackRepository stores feedback entries awaiting or after delivery.
type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, entry *FeedbackEntry) error
	MarkFeedback(ctx context.Context, id string, status FeedbackStatus, errMsg string) error
	GetFeedback(ctx context.Context, id string) (*FeedbackEntry, error)
	CountFeedback(ctx context.Context, status FeedbackStatus) (int64, error)
}
