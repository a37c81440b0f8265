package seatfinder

import (
	"context"
	"fmt"
	"log/slog"

	"seatfinder-backend/lib/sessionstore"
)

// Service runs seat searches and owns their session records. The search is
// synchronous from the caller's perspective but internally parallel;
// callers may also poll GetProgress from another process while a search is
// in flight.
type Service struct {
	cfg      Config
	store    sessionstore.Store
	venues   []Venue
	sessions []string
}

func NewService(store sessionstore.Store, cfg Config) *Service {
	return NewServiceWithVenues(store, cfg, DefaultVenues())
}

func NewServiceWithVenues(store sessionstore.Store, cfg Config, venues []Venue) *Service {
	return NewServiceWithScope(store, cfg, venues, SessionCodes())
}

// NewServiceWithScope additionally narrows the exam sessions a search fans
// out over; seatctl uses it for single-venue or single-session runs.
func NewServiceWithScope(store sessionstore.Store, cfg Config, venues []Venue, sessions []string) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		venues:   venues,
		sessions: sessions,
	}
}

func (s *Service) Config() Config {
	return s.cfg
}

// StartSearch begins a search for rollNumber on the given exam date
// (day/month/year, as the venue endpoints expect) and returns once the
// full batch has settled. Result ordering follows task completion order;
// callers must not assume a venue/session ordering, only that every
// matching record appears exactly once.
func (s *Service) StartSearch(ctx context.Context, rollNumber, date string) (string, []sessionstore.SeatResult, error) {
	sessionID, err := s.store.Create(ctx, sessionstore.Session{
		Status:     sessionstore.StatusSearching,
		Message:    "Search started - finding your exam details...",
		Progress:   0,
		Results:    []sessionstore.SeatResult{},
		RollNumber: rollNumber,
		Date:       date,
	})
	if err != nil {
		return "", nil, fmt.Errorf("create search session: %w", err)
	}

	slog.InfoContext(ctx, "new search session", "session_id", sessionID, "date", date)

	results, err := s.runSearch(ctx, rollNumber, date, sessionID)
	if err != nil {
		slog.ErrorContext(ctx, "search orchestration failed", "session_id", sessionID, "err", err)
		s.failSession(ctx, sessionID)
		return sessionID, nil, err
	}
	return sessionID, results, nil
}

// failSession marks a session terminally failed with a generic user-safe
// message; internal detail stays in the logs.
func (s *Service) failSession(ctx context.Context, sessionID string) {
	status := sessionstore.StatusError
	message := "Search failed. Please try again."
	progress := 0
	results := []sessionstore.SeatResult{}
	_, err := s.store.Update(ctx, sessionID, sessionstore.Update{
		Status:   &status,
		Message:  &message,
		Progress: &progress,
		Results:  &results,
	})
	if err != nil {
		slog.WarnContext(ctx, "error-state write failed", "session_id", sessionID, "err", err)
	}
}

// GetProgress loads a session's current state. ok=false means the id is
// unknown or the session expired.
func (s *Service) GetProgress(ctx context.Context, sessionID string) (sessionstore.Session, bool, error) {
	return s.store.Get(ctx, sessionID)
}

func (s *Service) ExtendSession(ctx context.Context, sessionID string) (bool, error) {
	return s.store.Extend(ctx, sessionID)
}

func (s *Service) ClearAllSessions(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}

func (s *Service) ActiveSessions(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// StorageBackend names the session backend for the health endpoint.
func (s *Service) StorageBackend() string {
	if _, ok := s.store.(*sessionstore.RedisStore); ok {
		return "Redis"
	}
	return "Memory"
}
