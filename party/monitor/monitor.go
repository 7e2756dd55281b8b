package monitor

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/liuran001/WatchParty-Go/party"
	"github.com/liuran001/WatchParty-Go/party/backend"
	"github.com/liuran001/WatchParty-Go/party/room"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Source is the backend surface polled by the monitor.
type Source interface {
	Server(ctx context.Context) string
	CheckHealth(ctx context.Context) error
	ListGames(ctx context.Context) ([]backend.GameRecord, error)
}

// Options configures the poll loop.
type Options struct {
	Interval time.Duration
	// Timeout bounds one poll; zero means the interval.
	Timeout time.Duration
	Clock   clockwork.Clock
}

// Monitor polls backend health and live rooms at a fixed interval and hands
// the results to a Renderer.
type Monitor struct {
	source   Source
	codec    *room.Codec
	renderer party.Renderer
	clock    clockwork.Clock
	interval time.Duration
	timeout  time.Duration
	logger   party.Logger

	// One poll at a time; ticks arriving during a poll are dropped.
	busy *semaphore.Weighted

	mu       sync.Mutex
	cancel   context.CancelFunc
	loop     sync.WaitGroup
	inFlight sync.WaitGroup
}

// New creates a monitor. A nil codec uses the default grammar table.
func New(source Source, codec *room.Codec, renderer party.Renderer, opts Options, logger party.Logger) *Monitor {
	if codec == nil {
		codec = room.NewCodec(nil, room.DefaultChatBase)
	}
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = opts.Interval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Monitor{
		source:   source,
		codec:    codec,
		renderer: renderer,
		clock:    opts.Clock,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		logger:   logger,
		busy:     semaphore.NewWeighted(1),
	}
}

// Start polls once immediately and then on every tick until Stop or ctx ends.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	ticker := m.clock.NewTicker(m.interval)
	m.loop.Add(1)
	go func() {
		defer m.loop.Done()
		defer ticker.Stop()

		m.tryPoll(loopCtx)
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.Chan():
				m.tryPoll(loopCtx)
			}
		}
	}()
}

// Stop ends the poll loop and waits for an in-flight poll to return.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.loop.Wait()
	m.inFlight.Wait()
}

// Refresh polls now, waiting for any in-flight poll to finish first.
func (m *Monitor) Refresh(ctx context.Context) error {
	if err := m.busy.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.busy.Release(1)
	m.poll(ctx)
	return nil
}

func (m *Monitor) tryPoll(ctx context.Context) {
	if !m.busy.TryAcquire(1) {
		if m.logger != nil {
			m.logger.Debug("poll still running, skipping tick")
		}
		return
	}
	m.inFlight.Add(1)
	go func() {
		defer m.inFlight.Done()
		defer m.busy.Release(1)
		m.poll(ctx)
	}()
}

func (m *Monitor) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var (
		report party.HealthReport
		games  []party.GameView
	)
	var g errgroup.Group
	g.Go(func() error {
		report = m.checkHealth(ctx)
		return nil
	})
	g.Go(func() error {
		games = m.listGames(ctx)
		return nil
	})
	_ = g.Wait()

	if m.renderer != nil {
		m.renderer.RenderHealth(report)
		m.renderer.RenderGames(games)
	}
}

func (m *Monitor) checkHealth(ctx context.Context) party.HealthReport {
	report := party.HealthReport{Server: m.source.Server(ctx)}
	err := m.source.CheckHealth(ctx)
	switch {
	case err == nil:
		report.State = party.HealthOnline
	case errors.Is(err, backend.ErrBadServerURL):
		report.State = party.HealthBadURL
		report.Error = err.Error()
	default:
		report.State = party.HealthUnreachable
		report.Error = err.Error()
	}
	report.Text = report.State.Text()
	report.CheckedAt = m.clock.Now()

	if err != nil && m.logger != nil {
		m.logger.Debug("health check failed", "server", report.Server, "state", report.State, "error", err)
	}
	return report
}

func (m *Monitor) listGames(ctx context.Context) []party.GameView {
	records, err := m.source.ListGames(ctx)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("list games failed", "error", err)
		}
		return []party.GameView{}
	}
	return m.views(records)
}

// views describes each record and orders the busiest rooms first.
func (m *Monitor) views(records []backend.GameRecord) []party.GameView {
	views := make([]party.GameView, 0, len(records))
	for _, rec := range records {
		desc := m.codec.Describe(rec.RoomID)
		platform := desc.Platform
		if platform == room.PlatformGeneric && rec.Platform != "" {
			platform = rec.Platform
		}
		views = append(views, party.GameView{
			RoomID:     rec.RoomID,
			Title:      rec.DisplayTitle(desc.Label),
			Platform:   platform,
			League:     rec.League,
			Label:      desc.Label,
			WatchURL:   desc.URL,
			ChatURL:    desc.ChatURL,
			Override:   room.OverrideParam(rec.RoomID),
			Clients:    rec.Clients,
			LastActive: rec.LastActive,
		})
	}
	slices.SortStableFunc(views, func(a, b party.GameView) int {
		return cmp.Compare(b.Clients, a.Clients)
	})
	return views
}
