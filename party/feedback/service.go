package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/liuran001/WatchParty-Go/party"
	"github.com/liuran001/WatchParty-Go/party/validation"
)

var (
	// ErrRateLimited is returned when a client submits faster than allowed.
	ErrRateLimited = errors.New("feedback: rate limited")
	// ErrInvalid wraps a *validation.Error describing the rejected fields.
	ErrInvalid = errors.New("feedback: invalid request")
	// ErrDelivery is returned when no notifier accepted a stored entry.
	ErrDelivery = errors.New("feedback: delivery failed")
)

// Request is an unsanitized feedback submission.
type Request struct {
	Message string `json:"message" validate:"required"`
	Contact string `json:"contact,omitempty" validate:"max=200"`
	Page    string `json:"page,omitempty" validate:"omitempty,max=2048,url"`
	RoomID  string `json:"roomId,omitempty" validate:"omitempty,max=256,roomid"`
}

// Options tunes limits for the service.
type Options struct {
	RatePerSecond float64
	Burst         int
	MaxLength     int
	// Timeout bounds delivery to all notifiers.
	Timeout time.Duration
}

// Service validates, stores and relays feedback.
type Service struct {
	repo      party.FeedbackRepository
	pool      party.WorkerPool
	notifiers []Notifier
	limiter   *RateLimiter
	validator *validation.Validator
	maxLength int
	timeout   time.Duration
	logger    party.Logger
	newID     func() string
}

// NewService creates a feedback service.
func NewService(repo party.FeedbackRepository, pool party.WorkerPool, notifiers []Notifier, opts Options, logger party.Logger) *Service {
	if opts.MaxLength <= 0 {
		opts.MaxLength = 2000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Service{
		repo:      repo,
		pool:      pool,
		notifiers: notifiers,
		limiter:   NewRateLimiter(opts.RatePerSecond, opts.Burst),
		validator: validation.Default,
		maxLength: opts.MaxLength,
		timeout:   opts.Timeout,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Notifiers returns the configured notifier names.
func (s *Service) Notifiers() []string {
	names := make([]string, 0, len(s.notifiers))
	for _, n := range s.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Submit rate-limits, validates, sanitizes, stores and relays one entry. A
// stored entry is returned even when delivery fails; the error then wraps
// ErrDelivery.
func (s *Service) Submit(ctx context.Context, clientKey string, req Request) (*party.FeedbackEntry, error) {
	if !s.limiter.Allow(clientKey) {
		return nil, ErrRateLimited
	}

	req.Message = strings.TrimSpace(req.Message)
	req.Contact = strings.TrimSpace(req.Contact)
	req.Page = strings.TrimSpace(req.Page)
	req.RoomID = strings.TrimSpace(req.RoomID)
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	entry := &party.FeedbackEntry{
		ID:      s.newID(),
		Message: sanitize(req.Message),
		Contact: sanitize(req.Contact),
		Page:    req.Page,
		RoomID:  req.RoomID,
		Status:  party.FeedbackPending,
	}
	if entry.Message == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, s.validator.Var("message", entry.Message, "required"))
	}
	if err := s.validator.Var("message", entry.Message, fmt.Sprintf("max=%d", s.maxLength)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := s.repo.CreateFeedback(ctx, entry); err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}

	if len(s.notifiers) == 0 {
		if s.logger != nil {
			s.logger.Warn("feedback stored without notifiers", "id", entry.ID)
		}
		return entry, nil
	}

	deliverCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		delivered int
		failures  []error
	}
	snapshot := *entry
	results := make(chan outcome, 1)
	deliver := func() error {
		var out outcome
		for _, n := range s.notifiers {
			if err := n.Notify(deliverCtx, snapshot); err != nil {
				out.failures = append(out.failures, fmt.Errorf("%s: %w", n.Name(), err))
				continue
			}
			out.delivered++
		}
		results <- out
		return nil
	}

	var res outcome
	var err error
	if s.pool != nil {
		err = s.pool.SubmitWaitContext(deliverCtx, deliver)
	} else {
		err = deliver()
	}
	if err != nil {
		res.failures = []error{err}
	} else {
		res = <-results
	}
	failures, delivered := res.failures, res.delivered

	// Record the outcome even if the caller has gone away.
	markCtx := context.WithoutCancel(ctx)
	joined := errors.Join(failures...)
	entry.Status = party.FeedbackSent
	if delivered == 0 {
		entry.Status = party.FeedbackFailed
	}
	if joined != nil {
		entry.Error = joined.Error()
	}
	if err := s.repo.MarkFeedback(markCtx, entry.ID, entry.Status, entry.Error); err != nil && s.logger != nil {
		s.logger.Error("mark feedback", "id", entry.ID, "error", err)
	}

	if entry.Status == party.FeedbackFailed {
		if s.logger != nil {
			s.logger.Warn("feedback delivery failed", "id", entry.ID, "error", joined)
		}
		return entry, fmt.Errorf("%w: %w", ErrDelivery, joined)
	}
	if joined != nil && s.logger != nil {
		s.logger.Warn("feedback partially delivered", "id", entry.ID, "error", joined)
	}
	if s.logger != nil {
		s.logger.Info("feedback delivered", "id", entry.ID, "notifiers", delivered)
	}
	return entry, nil
}
