// Package session holds the mutable state of one agent session: the current
// location and the event log.
package session

import (
	"context"
	"sync"

	"homebox-voice-mcp/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mirror receives every appended entry, e.g. to index it for queries.
type Mirror interface {
	RecordEvent(ctx context.Context, entry events.Entry) error
}

// Session is created at agent-session start and discarded with it. Only the
// tool layer writes to it.
type Session struct {
	id      uuid.UUID
	mu      sync.RWMutex
	current *uuid.UUID
	log     *events.Log
	mirror  Mirror
	logger  *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithMirror forwards appended entries to m.
func WithMirror(m Mirror) Option {
	return func(s *Session) { s.mirror = m }
}

// WithLogger sets the logger used for mirror failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// New starts a session with no current location and an empty log.
func New(opts ...Option) *Session {
	s := &Session{
		id:     uuid.New(),
		log:    events.NewLog(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies the session in traces and logs.
func (s *Session) ID() uuid.UUID { return s.id }

// CurrentLocation returns the current location, or nil when none is set.
func (s *Session) CurrentLocation() *uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	id := *s.current
	return &id
}

// SetCurrentLocation replaces the current location and returns the previous one.
func (s *Session) SetCurrentLocation(id uuid.UUID) *uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	s.current = &id
	return prev
}

// Events exposes the session's event log for reading.
func (s *Session) Events() *events.Log {
	return s.log
}

// Record appends e to the log and mirrors it. A mirror failure never undoes
// the append.
func (s *Session) Record(ctx context.Context, e events.Event) events.Entry {
	entry := s.log.Append(e)
	s.logger.Info("event recorded",
		zap.Int("seq", entry.Seq),
		zap.String("kind", string(e.Kind())),
		zap.String("description", e.Describe()))

	if s.mirror != nil {
		if err := s.mirror.RecordEvent(ctx, entry); err != nil {
			s.logger.Warn("event mirror failed", zap.Int("seq", entry.Seq), zap.Error(err))
		}
	}
	return entry
}
