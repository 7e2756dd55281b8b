package settings

import (
	"context"
	"net/url"
	"strings"

	"github.com/liuran001/WatchParty-Go/party"
)

// ServerKey is the setting holding the user-chosen backend address.
const ServerKey = "watchparty_ws"

// Defaults holds the built-in backend addresses.
type Defaults struct {
	Secure   string
	Insecure string
	// PublicURL decides which default applies: https selects Secure.
	PublicURL string
}

// Store resolves the backend address from persisted settings.
type Store struct {
	repo     party.SettingsRepository
	fallback string
	logger   party.Logger
}

var _ party.ServerAddress = (*Store)(nil)

// NewStore creates a Store over repo.
func NewStore(repo party.SettingsRepository, defaults Defaults, logger party.Logger) *Store {
	return &Store{
		repo:     repo,
		fallback: pickDefault(defaults),
		logger:   logger,
	}
}

func pickDefault(d Defaults) string {
	if u, err := url.Parse(strings.TrimSpace(d.PublicURL)); err == nil && strings.EqualFold(u.Scheme, "https") {
		return d.Secure
	}
	return d.Insecure
}

// Default returns the built-in address used when nothing is stored.
func (s *Store) Default() string {
	return s.fallback
}

// Get returns the stored address, or the default when none is stored or the
// store cannot be read.
func (s *Store) Get(ctx context.Context) string {
	value, ok, err := s.repo.GetSetting(ctx, ServerKey)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("read server address", "error", err)
		}
		return s.fallback
	}
	if !ok || value == "" {
		return s.fallback
	}
	return value
}

// Set stores a trimmed address. An empty value resets to the default.
func (s *Store) Set(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.Reset(ctx)
	}
	if err := s.repo.PutSetting(ctx, ServerKey, value); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("server address saved", "server", value)
	}
	return nil
}

// Reset removes the stored address.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.repo.DeleteSetting(ctx, ServerKey); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("server address reset", "server", s.fallback)
	}
	return nil
}
