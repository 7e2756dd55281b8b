package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/liuran001/WatchParty-Go/party/validation"
)

// GameRecord is one live room reported by the backend.
type GameRecord struct {
	RoomID     string     `json:"roomId" validate:"required,max=256"`
	Title      string     `json:"title,omitempty" validate:"max=200"`
	Home       string     `json:"home,omitempty" validate:"max=100"`
	Away       string     `json:"away,omitempty" validate:"max=100"`
	Platform   string     `json:"platform,omitempty" validate:"max=50"`
	League     string     `json:"league,omitempty" validate:"max=50"`
	Clients    int        `json:"clients,omitempty" validate:"gte=0"`
	LastActive *time.Time `json:"lastActive,omitempty"`
}

// DisplayTitle picks the title, then "away @ home", then fallback.
func (g GameRecord) DisplayTitle(fallback string) string {
	if title := strings.TrimSpace(g.Title); title != "" {
		return title
	}
	home, away := strings.TrimSpace(g.Home), strings.TrimSpace(g.Away)
	if home != "" && away != "" {
		return away + " @ " + home
	}
	return fallback
}

type gamesEnvelope struct {
	Games []json.RawMessage `json:"games"`
}

// ListGames fetches GET /games. The body may be a bare array or {"games": [...]}.
// Records that fail to decode or validate are dropped.
func (c *Client) ListGames(ctx context.Context) ([]GameRecord, error) {
	endpoint, err := c.endpoint(ctx, "/games")
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	err = c.execute(ctx, func() error {
		resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return &RequestError{Method: http.MethodGet, Endpoint: endpoint, Status: resp.StatusCode, Err: err}
		}
		if resp.StatusCode != http.StatusOK {
			return &RequestError{Method: http.MethodGet, Endpoint: endpoint, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
		}

		raw, err = decodeGameList(body)
		if err != nil {
			// Not retryable: the server answered, just not with a list.
			return &RequestError{Method: http.MethodGet, Endpoint: endpoint, Status: http.StatusUnprocessableEntity, Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	games := make([]GameRecord, 0, len(raw))
	for i, item := range raw {
		var game GameRecord
		if err := json.Unmarshal(item, &game); err != nil {
			c.dropped(i, err)
			continue
		}
		if err := validation.Default.Struct(game); err != nil {
			c.dropped(i, err)
			continue
		}
		games = append(games, game)
	}
	return games, nil
}

func (c *Client) dropped(index int, err error) {
	if c.logger != nil {
		c.logger.Warn("dropping game record", "index", index, "error", err)
	}
}

func decodeGameList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty game list")
	}
	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode game list: %w", err)
		}
		return list, nil
	case '{':
		var env gamesEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode game list: %w", err)
		}
		return env.Games, nil
	default:
		return nil, errors.New("game list is neither an array nor an object")
	}
}
