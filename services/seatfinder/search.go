package seatfinder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"seatfinder-backend/lib/sessionstore"
	"seatfinder-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
)

type taskResult struct {
	task    VenueSessionTask
	matches []SeatRecord
	err     error
}

// runSearch fans one roll-number+date lookup out across every
// venue×session combination, reporting live progress into the session
// record. Per-task failures degrade to zero matches; only a failure of the
// orchestration itself surfaces as the returned error.
func (s *Service) runSearch(ctx context.Context, rollNumber, date, sessionID string) (results []sessionstore.SeatResult, err error) {
	ctx, span := tracer.Start(ctx, "runSearch")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search orchestration: %v", r)
		}
	}()

	start := time.Now()
	s.updateProgress(ctx, sessionID, "Initializing parallel search...", 5)

	var tasks []VenueSessionTask
	for _, venue := range s.venues {
		for _, session := range s.sessions {
			tasks = append(tasks, VenueSessionTask{Venue: venue, Session: session})
		}
	}
	total := len(tasks)
	span.SetAttributes(attribute.Int("tasks", total))

	s.updateProgress(ctx, sessionID, fmt.Sprintf("Starting %d parallel searches...", total), 10)

	batchCtx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
	defer cancel()

	completions := make(chan taskResult, total)
	sem := make(chan struct{}, s.cfg.Workers)
	for _, task := range tasks {
		go func(task VenueSessionTask) {
			sem <- struct{}{}
			defer func() { <-sem }()
			matches, err := s.searchVenueSession(batchCtx, task, rollNumber, date)
			completions <- taskResult{task: task, matches: matches, err: err}
		}(task)
	}

	var allMatches []SeatRecord
	completed := 0
collect:
	for completed < total {
		select {
		case res := <-completions:
			completed++
			// 10% for setup, 80% across the searches, the rest on finalize
			progress := 10 + int(float64(completed)/float64(total)*80)

			venueName := res.task.Venue.Name
			sessionName := SessionName(res.task.Session)

			if res.err != nil {
				slog.WarnContext(
					ctx, "venue search failed",
					"venue", res.task.Venue.Code,
					"session", res.task.Session,
					"err", res.err,
				)
				s.updateProgress(ctx, sessionID, fmt.Sprintf(
					"Searched %s - %s (%d/%d)",
					venueName, sessionName, completed, total,
				), progress)
				continue
			}

			if len(res.matches) > 0 {
				allMatches = append(allMatches, res.matches...)
				s.updateProgress(ctx, sessionID, fmt.Sprintf(
					"Found %d result(s) in %s - %s!",
					len(res.matches), venueName, sessionName,
				), progress)
			} else {
				s.updateProgress(ctx, sessionID, fmt.Sprintf(
					"Searched %s - %s (%d/%d)",
					venueName, sessionName, completed, total,
				), progress)
			}
		case <-batchCtx.Done():
			// tasks past the batch deadline count the same as failed ones
			slog.WarnContext(
				ctx, "batch deadline reached",
				"completed", completed,
				"total", total,
			)
			break collect
		}
	}

	elapsed := time.Since(start)
	formatted := formatResults(allMatches)
	s.finalizeSession(ctx, sessionID, formatted, elapsed)

	slog.InfoContext(
		ctx, "search completed",
		"session_id", sessionID,
		"results", len(formatted),
		"elapsed", elapsed,
	)
	return formatted, nil
}

// searchVenueSession runs one task end to end: handshake, extraction, and
// the case-insensitive substring match against the registration number.
// The matched records are stamped with the venue they were found at. The
// client is created per task and released before returning.
func (s *Service) searchVenueSession(ctx context.Context, task VenueSessionTask, rollNumber, date string) ([]SeatRecord, error) {
	client, err := NewVenueClient(task.Venue, s.cfg)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	body, ok, err := client.FetchReport(ctx, date, task.Session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	records := ExtractSeatingData(ctx, body, ExtractQuery{
		Date:    date,
		Session: task.Session,
		Venue:   task.Venue,
	})

	var matches []SeatRecord
	for _, record := range records {
		if !textutil.ContainsFold(record.RegistrationNumber, rollNumber) {
			continue
		}
		record.VenueCode = task.Venue.Code
		record.VenueName = task.Venue.Name
		matches = append(matches, record)
	}
	return matches, nil
}

// updateProgress writes a progress advance with max-wins semantics: the
// write is dropped unless it strictly exceeds the stored value, and
// terminal sessions are never touched. This keeps user-visible progress
// monotonic despite out-of-order task completions.
func (s *Service) updateProgress(ctx context.Context, sessionID, message string, progress int) {
	data, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		slog.WarnContext(ctx, "progress read failed", "session_id", sessionID, "err", err)
		return
	}
	if !ok {
		return
	}
	if data.Status == sessionstore.StatusCompleted || data.Status == sessionstore.StatusError {
		return
	}
	if progress <= data.Progress {
		return
	}
	if progress > 100 {
		progress = 100
	}

	status := sessionstore.StatusSearching
	if progress >= 100 {
		status = sessionstore.StatusCompleted
	}
	_, err = s.store.Update(ctx, sessionID, sessionstore.Update{
		Status:   &status,
		Message:  &message,
		Progress: &progress,
	})
	if err != nil {
		slog.WarnContext(ctx, "progress write failed", "session_id", sessionID, "err", err)
	}
}

func (s *Service) finalizeSession(ctx context.Context, sessionID string, results []sessionstore.SeatResult, elapsed time.Duration) {
	status := sessionstore.StatusCompleted
	message := fmt.Sprintf("Found %d exam(s) in %.1fs using parallel search!", len(results), elapsed.Seconds())
	progress := 100
	searchTime := elapsed.Seconds()
	_, err := s.store.Update(ctx, sessionID, sessionstore.Update{
		Status:     &status,
		Message:    &message,
		Progress:   &progress,
		Results:    &results,
		SearchTime: &searchTime,
	})
	if err != nil {
		slog.WarnContext(ctx, "final session write failed", "session_id", sessionID, "err", err)
	}
}
