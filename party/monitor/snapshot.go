package monitor

import (
	"slices"
	"sync"

	"github.com/liuran001/WatchParty-Go/party"
)

// Snapshot is a Renderer that keeps the latest results for readers such as
// the web handlers.
type Snapshot struct {
	mu     sync.RWMutex
	health party.HealthReport
	games  []party.GameView
}

var _ party.Renderer = (*Snapshot)(nil)

// NewSnapshot creates a Snapshot reporting the given server as not yet checked.
func NewSnapshot(server string) *Snapshot {
	return &Snapshot{
		health: party.HealthReport{
			State:  party.HealthUnknown,
			Text:   party.HealthUnknown.Text(),
			Server: server,
		},
		games: []party.GameView{},
	}
}

func (s *Snapshot) RenderHealth(report party.HealthReport) {
	s.mu.Lock()
	s.health = report
	s.mu.Unlock()
}

func (s *Snapshot) RenderGames(games []party.GameView) {
	if games == nil {
		games = []party.GameView{}
	}
	s.mu.Lock()
	s.games = games
	s.mu.Unlock()
}

// Health returns the latest health report.
func (s *Snapshot) Health() party.HealthReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// Games returns a copy of the latest room list.
func (s *Snapshot) Games() []party.GameView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.games)
}
