package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/liuran001/WatchParty-Go/party/backend"
	"github.com/liuran001/WatchParty-Go/party/config"
	"github.com/liuran001/WatchParty-Go/party/db"
	"github.com/liuran001/WatchParty-Go/party/feedback"
	logpkg "github.com/liuran001/WatchParty-Go/party/logger"
	"github.com/liuran001/WatchParty-Go/party/monitor"
	"github.com/liuran001/WatchParty-Go/party/room"
	"github.com/liuran001/WatchParty-Go/party/settings"
	"github.com/liuran001/WatchParty-Go/party/web"
	"github.com/liuran001/WatchParty-Go/party/worker"
)

// App wires all application dependencies.
type App struct {
	Config   *config.Config
	Logger   *logpkg.Logger
	DB       *db.Repository
	Pool     *worker.Pool
	Address  *settings.Store
	Backend  *backend.Client
	Codec    *room.Codec
	Feedback *feedback.Service
	Snapshot *monitor.Snapshot
	Monitor  *monitor.Monitor
	Web      *web.Server
	Build    BuildInfo

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// BuildInfo provides build-time metadata.
type BuildInfo struct {
	RuntimeVer string
	BinVersion string
	CommitSHA  string
	BuildTime  string
	BuildArch  string
}

// New builds the application container.
func New(ctx context.Context, configPath string, build BuildInfo) (*App, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logpkg.New(logpkg.Options{
		Level:      conf.GetString("LogLevel"),
		Format:     conf.GetString("LogFormat"),
		AddSource:  conf.GetBool("LogSource"),
		Dir:        conf.GetString("LogDir"),
		MaxSizeMB:  conf.GetInt("LogMaxSizeMB"),
		MaxBackups: conf.GetInt("LogMaxBackups"),
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	gormLogger := logpkg.NewGormLogger(log.Slog(), logpkg.ParseGormLevel(conf.GetString("GormLogLevel"))).
		WithSlowThreshold(time.Duration(conf.GetInt("DBSlowQueryMs")) * time.Millisecond)
	databasePath := strings.TrimSpace(conf.GetString("Database"))
	if databasePath == "" {
		databasePath = "watchparty.db"
	}
	repo, err := db.NewSQLiteRepository(databasePath, gormLogger)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("init db: %w", err)
	}
	maxLifetime := time.Duration(conf.GetInt("DBConnMaxLifetimeSec")) * time.Second
	if err := repo.ConfigurePool(conf.GetInt("DBMaxOpenConns"), conf.GetInt("DBMaxIdleConns"), maxLifetime); err != nil {
		_ = repo.Close()
		_ = log.Close()
		return nil, fmt.Errorf("configure db pool: %w", err)
	}

	store := settings.NewStore(repo, settings.Defaults{
		Secure:    conf.GetString("DefaultServerSecure"),
		Insecure:  conf.GetString("DefaultServerInsecure"),
		PublicURL: conf.GetString("PublicURL"),
	}, log.With("component", "settings"))

	client := backend.New(store, backend.Options{
		Timeout:    seconds(conf.GetInt("RequestTimeoutSec")),
		MaxRetries: conf.GetInt("RequestMaxRetries"),
	}, log.With("component", "backend"))

	pool := worker.New(conf.GetInt("WorkerPoolSize"))

	notifiers, err := buildNotifiers(conf, client, log)
	if err != nil {
		pool.StopNow()
		_ = repo.Close()
		_ = log.Close()
		return nil, err
	}

	service := feedback.NewService(repo, pool, notifiers, feedback.Options{
		RatePerSecond: conf.GetFloat64("FeedbackRatePerSecond"),
		Burst:         conf.GetInt("FeedbackBurst"),
		MaxLength:     conf.GetInt("FeedbackMaxLength"),
		Timeout:       seconds(conf.GetInt("FeedbackTimeoutSec")),
	}, log.With("component", "feedback"))

	codec := room.NewCodec(room.Default, conf.GetString("ChatBaseURL"))
	snapshot := monitor.NewSnapshot(store.Get(ctx))
	mon := monitor.New(client, codec, snapshot, monitor.Options{
		Interval: seconds(conf.GetInt("PollIntervalSec")),
	}, log.With("component", "monitor"))

	server := web.New(web.Config{
		Codec:    codec,
		Address:  store,
		Status:   snapshot,
		Refresh:  mon,
		Feedback: service,
		Logger:   log.With("component", "web"),

		TrustProxyHeaders: conf.GetBool("TrustProxyHeaders"),
	})

	log.Info("application initialized",
		"version", build.BinVersion,
		"commit", build.CommitSHA,
		"platforms", room.Default.Tags(),
		"notifiers", service.Notifiers(),
	)

	return &App{
		Config:   conf,
		Logger:   log,
		DB:       repo,
		Pool:     pool,
		Address:  store,
		Backend:  client,
		Codec:    codec,
		Feedback: service,
		Snapshot: snapshot,
		Monitor:  mon,
		Web:      server,
		Build:    build,
	}, nil
}

// buildNotifiers enables the backend relay unless disabled and the Telegram
// relay when a token and chat are configured.
func buildNotifiers(conf *config.Config, client *backend.Client, log *logpkg.Logger) ([]feedback.Notifier, error) {
	var notifiers []feedback.Notifier

	if sinkEnabled(conf, "backend", true) {
		notifiers = append(notifiers, feedback.NewBackendNotifier(client))
	} else {
		log.Info("notifier disabled by config", "notifier", "backend")
	}

	token := firstNonEmpty(conf.GetSinkString("telegram", "token"), conf.GetString("TelegramBotToken"))
	chatID := conf.GetSinkInt64("telegram", "chat_id")
	if chatID == 0 {
		chatID = conf.GetInt64("TelegramChatID")
	}
	configured := token != "" && chatID != 0
	if sinkEnabled(conf, "telegram", configured) {
		if !configured {
			return nil, errors.New("telegram notifier enabled without token and chat id")
		}
		tg, err := feedback.NewTelegramNotifier(feedback.TelegramOptions{
			Token:     token,
			ChatID:    chatID,
			APIServer: firstNonEmpty(conf.GetSinkString("telegram", "api"), conf.GetString("TelegramAPI")),
		}, log.With("component", "telegram"))
		if err != nil {
			return nil, fmt.Errorf("init telegram notifier: %w", err)
		}
		notifiers = append(notifiers, tg)
	}

	return notifiers, nil
}

func sinkEnabled(conf *config.Config, name string, fallback bool) bool {
	cfg, ok := conf.GetSinkConfig(name)
	if !ok {
		return fallback
	}
	if _, hasKey := cfg["enabled"]; !hasKey {
		return fallback
	}
	return conf.GetSinkBool(name, "enabled")
}

// Start launches the poll loop and the HTTP listener.
func (a *App) Start(ctx context.Context) error {
	addr := a.Config.GetString("ListenAddr")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	a.mu.Lock()
	a.listener = ln
	a.serveErr = make(chan error, 1)
	a.mu.Unlock()

	a.Monitor.Start(ctx)

	go func() {
		err := a.Web.Serve(ln)
		if err != nil {
			a.Logger.Error("http server stopped", "error", err)
		}
		a.serveErr <- err
	}()

	a.Logger.Info("companion page listening",
		"addr", ln.Addr().String(),
		"public_url", a.Config.GetString("PublicURL"),
		"server", a.Address.Get(ctx),
	)
	return nil
}

// Addr returns the bound listen address once Start has succeeded.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Done reports a fatal HTTP server error after Start.
func (a *App) Done() <-chan error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.serveErr
}

// Shutdown releases resources in reverse start order.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if a.Web != nil {
		if err := a.Web.Shutdown(ctx); err != nil {
			a.Logger.Error("failed to stop http server", "error", err)
			firstErr = fmt.Errorf("shutdown http server: %w", err)
		}
	}

	if a.Monitor != nil {
		a.Monitor.Stop()
	}

	if a.Pool != nil {
		if err := a.Pool.Shutdown(ctx); err != nil {
			a.Pool.StopNow()
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown worker pool: %w", err)
			}
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("failed to close database", "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("close database: %w", err)
			}
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close logger: %w", err)
		}
	}

	return firstErr
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
