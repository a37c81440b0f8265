package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newClockedStore(ttl time.Duration) (*MemoryStore, *time.Time) {
	now := time.Date(2025, time.May, 28, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore(ttl)
	store.now = func() time.Time { return now }
	return store, &now
}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func TestCreateGetRoundTrip(t *testing.T) {
	store, _ := newClockedStore(time.Minute * 5)
	ctx := context.Background()

	id, err := store.Create(ctx, Session{
		Status:     StatusSearching,
		Message:    "Search started",
		RollNumber: "RA2111003010123",
		Date:       "28/05/2025",
		Results:    []SeatResult{},
	})
	require.NoError(t, err)
	require.Len(t, id, 32)

	data, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusSearching, data.Status)
	require.Equal(t, "RA2111003010123", data.RollNumber)
	require.NotNil(t, data.Results)

	_, ok, err = store.Get(ctx, "nonexistent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPartialUpdate(t *testing.T) {
	store, _ := newClockedStore(time.Minute * 5)
	ctx := context.Background()

	id, err := store.Create(ctx, Session{
		Status:   StatusSearching,
		Message:  "Search started",
		Progress: 0,
	})
	require.NoError(t, err)

	ok, err := store.Update(ctx, id, Update{Progress: intptr(40), Message: strptr("Searched 4/10...")})
	require.NoError(t, err)
	require.True(t, ok)

	data, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 40, data.Progress)
	require.Equal(t, "Searched 4/10...", data.Message)
	// untouched field survives the merge
	require.Equal(t, StatusSearching, data.Status)

	ok, err = store.Update(ctx, "nonexistent", Update{Progress: intptr(50)})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSlidingExpiry(t *testing.T) {
	store, now := newClockedStore(time.Second * 300)
	ctx := context.Background()

	id, err := store.Create(ctx, Session{Status: StatusSearching})
	require.NoError(t, err)

	// each touch inside the window restarts the countdown
	for i := 0; i < 3; i++ {
		*now = now.Add(time.Second * 200)
		_, ok, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
	}

	*now = now.Add(time.Second * 301)
	_, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)

	// the expired record was deleted, not just hidden
	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestExtendRefreshesWindow(t *testing.T) {
	store, now := newClockedStore(time.Second * 300)
	ctx := context.Background()

	id, err := store.Create(ctx, Session{Status: StatusCompleted})
	require.NoError(t, err)

	*now = now.Add(time.Second * 250)
	ok, err := store.Extend(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	*now = now.Add(time.Second * 250)
	_, ok, err = store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Extend(ctx, "nonexistent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCountDeleteClear(t *testing.T) {
	store, now := newClockedStore(time.Second * 300)
	ctx := context.Background()

	a, err := store.Create(ctx, Session{Status: StatusSearching})
	require.NoError(t, err)
	b, err := store.Create(ctx, Session{Status: StatusSearching})
	require.NoError(t, err)
	_, err = store.Create(ctx, Session{Status: StatusSearching})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	require.NoError(t, store.Delete(ctx, a))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Count prunes lapsed records instead of reporting them
	*now = now.Add(time.Second * 250)
	ok, err := store.Extend(ctx, b)
	require.NoError(t, err)
	require.True(t, ok)
	*now = now.Add(time.Second * 100)
	count, err = store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, store.ClearAll(ctx))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}
