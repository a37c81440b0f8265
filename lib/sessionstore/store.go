// Package sessionstore gives each in-flight or completed seat search a
// handle that survives across independent read/write calls, including from
// different processes when the server is horizontally scaled.
//
// Records expire on a sliding window: every successful Get or Update
// refreshes the last-accessed timestamp. The store performs an
// unconditional merge on Update; progress monotonicity and terminal-state
// absorption are the writer's policy, not the store's.
package sessionstore

import (
	"context"
	"time"

	"github.com/mazen160/go-random"
)

const (
	StatusSearching = "searching"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// SeatResult is the external shape of one matched seat allocation.
type SeatResult struct {
	RoomNumber         string `json:"room_number"`
	SeatNumber         string `json:"seat_number"`
	Session            string `json:"session"`
	SessionName        string `json:"session_name"`
	Date               string `json:"date"`
	Department         string `json:"department"`
	RegistrationNumber string `json:"registration_number"`
	VenueCode          string `json:"venue_code"`
	VenueName          string `json:"venue_name"`
}

// Session is the tracked state of one roll-number+date lookup.
type Session struct {
	Status     string       `json:"status"`
	Message    string       `json:"message"`
	Progress   int          `json:"progress"`
	Results    []SeatResult `json:"results"`
	RollNumber string       `json:"roll_number,omitempty"`
	Date       string       `json:"date,omitempty"`
	SearchTime float64      `json:"search_time,omitempty"`
}

// Update is a partial Session. Nil fields are left untouched; set fields
// overwrite. Unknown keys are unrepresentable by construction.
type Update struct {
	Status     *string
	Message    *string
	Progress   *int
	Results    *[]SeatResult
	SearchTime *float64
}

func (s *Session) apply(u Update) {
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.Message != nil {
		s.Message = *u.Message
	}
	if u.Progress != nil {
		s.Progress = *u.Progress
	}
	if u.Results != nil {
		s.Results = *u.Results
	}
	if u.SearchTime != nil {
		s.SearchTime = *u.SearchTime
	}
}

type Store interface {
	// Create allocates a fresh opaque id and stores the initial session.
	Create(ctx context.Context, initial Session) (string, error)
	// Get loads a session, refreshing its sliding-expiry window. An
	// expired or unknown id reports ok=false; expired records are deleted
	// on detection.
	Get(ctx context.Context, id string) (Session, bool, error)
	// Update merges the partial into the stored session and refreshes the
	// sliding-expiry window. Reports ok=false when the id is unknown or
	// expired.
	Update(ctx context.Context, id string, partial Update) (bool, error)
	// Extend refreshes the sliding-expiry window without reading.
	Extend(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// envelope is the stored representation shared by both backends, so a
// record written to the memory fallback round-trips identically to one
// written to redis.
type envelope struct {
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	Data         Session   `json:"data"`
}

func newSessionID() (string, error) {
	return random.String(32)
}
