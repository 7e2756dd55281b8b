package feedback

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liuran001/WatchParty-Go/party"
	"github.com/liuran001/WatchParty-Go/party/backend"
	"github.com/mymmrac/telego"
)

// Notifier relays a feedback entry to one destination.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, entry party.FeedbackEntry) error
}

// BackendNotifier posts entries to the watch-party backend.
type BackendNotifier struct {
	client *backend.Client
}

// NewBackendNotifier creates a notifier using client.
func NewBackendNotifier(client *backend.Client) *BackendNotifier {
	return &BackendNotifier{client: client}
}

func (n *BackendNotifier) Name() string { return "backend" }

func (n *BackendNotifier) Notify(ctx context.Context, entry party.FeedbackEntry) error {
	return n.client.SendFeedback(ctx, backend.Feedback{
		ID:        entry.ID,
		Message:   entry.Message,
		Contact:   entry.Contact,
		Page:      entry.Page,
		RoomID:    entry.RoomID,
		CreatedAt: entry.CreatedAt,
	})
}

// TelegramOptions configures the Telegram relay.
type TelegramOptions struct {
	Token     string
	ChatID    int64
	APIServer string
	// HTTPClient replaces the default client, mainly for tests.
	HTTPClient *http.Client
}

// TelegramNotifier sends entries to an admin chat.
type TelegramNotifier struct {
	client *telego.Bot
	chatID int64
}

// NewTelegramNotifier creates a Telegram relay.
func NewTelegramNotifier(opts TelegramOptions, logger party.Logger) (*TelegramNotifier, error) {
	if strings.TrimSpace(opts.Token) == "" || opts.ChatID == 0 {
		return nil, fmt.Errorf("telegram notifier: token and chat id required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	options := []telego.BotOption{
		telego.WithHTTPClient(httpClient),
		telego.WithLogger(telegoLogger{logger: logger}),
	}
	if opts.APIServer != "" {
		options = append(options, telego.WithAPIServer(strings.TrimRight(opts.APIServer, "/")))
	}

	client, err := telego.NewBot(opts.Token, options...)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{client: client, chatID: opts.ChatID}, nil
}

func (n *TelegramNotifier) Name() string { return "telegram" }

func (n *TelegramNotifier) Notify(ctx context.Context, entry party.FeedbackEntry) error {
	params := &telego.SendMessageParams{ChatID: telego.ChatID{ID: n.chatID}, Text: formatMessage(entry)}
	_, err := n.client.SendMessage(ctx, params)
	return err
}

func formatMessage(entry party.FeedbackEntry) string {
	var b strings.Builder
	b.WriteString("WatchParty feedback ")
	b.WriteString(entry.ID)
	b.WriteString("\n\n")
	b.WriteString(entry.Message)
	if entry.RoomID != "" {
		b.WriteString("\n\nRoom: ")
		b.WriteString(entry.RoomID)
	}
	if entry.Page != "" {
		b.WriteString("\nPage: ")
		b.WriteString(entry.Page)
	}
	if entry.Contact != "" {
		b.WriteString("\nContact: ")
		b.WriteString(entry.Contact)
	}
	return b.String()
}

type telegoLogger struct {
	logger party.Logger
}

func (l telegoLogger) Debugf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l telegoLogger) Errorf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Error(fmt.Sprintf(format, args...))
}
