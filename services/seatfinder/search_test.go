package seatfinder

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seatfinder-backend/lib/sessionstore"
	"seatfinder-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const noRecordsPage = `<html><body><p>No Records Found</p></body></html>`

func seatingReport(room, regNo string) string {
	return fmt.Sprintf(`<div class="content-and-table">
		<div id="datessesinfo"><h4>ROOM NO: %s DATE : 28/05/2025 SESSION : FN</h4></div>
		<table id="maintable">
			<tr><th>Dept</th><th>Seat</th><th>Register No.</th><th>Dept</th><th>Seat</th><th>Register No.</th></tr>
			<tr><td>CSE</td><td>12</td><td>%s</td><td></td><td></td><td></td></tr>
		</table>
	</div>`, room, regNo)
}

// seatPortal serves one venue's handshake. reportFor picks the response
// body per submitted exam session.
func seatPortal(t *testing.T, reportFor func(session string) string) string {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/hall/index.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><form action="fetch_data.php" method="post"></form></body></html>`)
	})
	mux.HandleFunc("/hall/fetch_data.php", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		fmt.Fprint(w, reportFor(r.PostFormValue("session")))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL + "/hall/index.php"
}

func testVenues(t *testing.T, matchVenue int, matchSession, room, regNo string) []Venue {
	venues := make([]Venue, 5)
	for i := range venues {
		i := i
		url := seatPortal(t, func(session string) string {
			if i == matchVenue && session == matchSession {
				return seatingReport(room, regNo)
			}
			return noRecordsPage
		})
		venues[i] = Venue{
			Code:    fmt.Sprintf("v%d", i),
			Name:    fmt.Sprintf("Venue %d", i),
			BaseUrl: url,
		}
	}
	return venues
}

func newTestService(t *testing.T, venues []Venue) (*Service, *sessionstore.MemoryStore) {
	cfg := developmentTier()
	cfg.ConnectTimeout = 2 * time.Second
	cfg.ReadTimeout = 5 * time.Second
	cfg.BatchTimeout = 30 * time.Second
	store := sessionstore.NewMemoryStore(cfg.SessionTTL)
	return NewServiceWithVenues(store, cfg, venues), store
}

func TestSearchSingleMatchAcrossVenues(t *testing.T) {
	telemetry.SetupForTesting(t, "services/seatfinder")

	venues := testVenues(t, 2, SessionAfternoon, "AB101", "RA2111003010123")
	service, _ := newTestService(t, venues)

	sessionID, results, err := service.StartSearch(context.Background(), "RA2111003010123", "28/05/2025")
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	require.Equal(t, "AB101", result.RoomNumber)
	require.Equal(t, "12", result.SeatNumber)
	require.Equal(t, "RA2111003010123", result.RegistrationNumber)
	require.Equal(t, "v2", result.VenueCode)
	require.Equal(t, "Venue 2", result.VenueName)
	require.Equal(t, SessionAfternoon, result.Session)
	require.Equal(t, "Afternoon", result.SessionName)

	data, ok, err := service.GetProgress(context.Background(), sessionID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sessionstore.StatusCompleted, data.Status)
	require.Equal(t, 100, data.Progress)
	require.Contains(t, data.Message, "Found 1 exam(s)")
	require.Len(t, data.Results, 1)
	require.Greater(t, data.SearchTime, 0.0)
}

func TestSearchCaseInsensitivePartialRoll(t *testing.T) {
	telemetry.SetupForTesting(t, "services/seatfinder")

	venues := testVenues(t, 0, SessionForenoon, "AB101", "RA2111003010123")
	service, _ := newTestService(t, venues)

	_, results, err := service.StartSearch(context.Background(), "ra21110030", "28/05/2025")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "RA2111003010123", results[0].RegistrationNumber)
}

func TestSearchAllVenuesUnreachable(t *testing.T) {
	telemetry.SetupForTesting(t, "services/seatfinder")

	venues := make([]Venue, 5)
	for i := range venues {
		venues[i] = Venue{
			Code:    fmt.Sprintf("v%d", i),
			Name:    fmt.Sprintf("Venue %d", i),
			BaseUrl: "http://127.0.0.1:1/hall/index.php",
		}
	}
	service, _ := newTestService(t, venues)

	sessionID, results, err := service.StartSearch(context.Background(), "RA2111003010123", "28/05/2025")
	require.NoError(t, err)
	require.NotNil(t, results)
	require.Empty(t, results)

	// per-task failures are not an orchestration failure: the session
	// completes cleanly with an empty result set
	data, ok, err := service.GetProgress(context.Background(), sessionID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sessionstore.StatusCompleted, data.Status)
	require.Equal(t, 100, data.Progress)
	require.Empty(t, data.Results)
}

func TestSearchFanOutCoversEveryCombination(t *testing.T) {
	telemetry.SetupForTesting(t, "services/seatfinder")

	type hit struct {
		venue   int
		session string
	}
	seen := make(chan hit, 20)

	venues := make([]Venue, 5)
	for i := range venues {
		i := i
		venues[i] = Venue{
			Code: fmt.Sprintf("v%d", i),
			Name: fmt.Sprintf("Venue %d", i),
			BaseUrl: seatPortal(t, func(session string) string {
				seen <- hit{venue: i, session: session}
				return noRecordsPage
			}),
		}
	}
	service, _ := newTestService(t, venues)

	_, _, err := service.StartSearch(context.Background(), "RA2111003010123", "28/05/2025")
	require.NoError(t, err)

	close(seen)
	got := map[hit]int{}
	for h := range seen {
		got[h]++
	}
	require.Len(t, got, 10)
	for h, n := range got {
		require.Equal(t, 1, n, "venue %d session %s queried more than once", h.venue, h.session)
	}
}

func TestSearchScopedToVenueAndSession(t *testing.T) {
	telemetry.SetupForTesting(t, "services/seatfinder")

	type hit struct {
		venue   int
		session string
	}
	seen := make(chan hit, 20)

	venues := make([]Venue, 5)
	for i := range venues {
		i := i
		venues[i] = Venue{
			Code: fmt.Sprintf("v%d", i),
			Name: fmt.Sprintf("Venue %d", i),
			BaseUrl: seatPortal(t, func(session string) string {
				seen <- hit{venue: i, session: session}
				return noRecordsPage
			}),
		}
	}

	cfg := developmentTier()
	cfg.ConnectTimeout = 2 * time.Second
	cfg.ReadTimeout = 5 * time.Second
	store := sessionstore.NewMemoryStore(cfg.SessionTTL)
	service := NewServiceWithScope(store, cfg, venues[3:4], []string{SessionForenoon})

	_, _, err := service.StartSearch(context.Background(), "RA2111003010123", "28/05/2025")
	require.NoError(t, err)

	close(seen)
	var hits []hit
	for h := range seen {
		hits = append(hits, h)
	}
	require.Equal(t, []hit{{venue: 3, session: SessionForenoon}}, hits)
}

func TestUpdateProgressMonotonicity(t *testing.T) {
	telemetry.SetupForTesting(t, "services/seatfinder")
	ctx := context.Background()

	service, store := newTestService(t, nil)
	id, err := store.Create(ctx, sessionstore.Session{
		Status:   sessionstore.StatusSearching,
		Progress: 50,
		Message:  "halfway",
	})
	require.NoError(t, err)

	// a stale lower write is dropped
	service.updateProgress(ctx, id, "late completion", 42)
	data, _, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 50, data.Progress)
	require.Equal(t, "halfway", data.Message)

	// an equal write is dropped too
	service.updateProgress(ctx, id, "same again", 50)
	data, _, err = store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "halfway", data.Message)

	// a strictly higher write lands
	service.updateProgress(ctx, id, "nearly there", 90)
	data, _, err = store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 90, data.Progress)
	require.Equal(t, sessionstore.StatusSearching, data.Status)

	// reaching 100 flips the status to completed
	service.updateProgress(ctx, id, "done", 120)
	data, _, err = store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 100, data.Progress)
	require.Equal(t, sessionstore.StatusCompleted, data.Status)
}

func TestUpdateProgressTerminalAbsorption(t *testing.T) {
	telemetry.SetupForTesting(t, "services/seatfinder")
	ctx := context.Background()

	service, store := newTestService(t, nil)

	for _, status := range []string{sessionstore.StatusCompleted, sessionstore.StatusError} {
		id, err := store.Create(ctx, sessionstore.Session{
			Status:   status,
			Progress: 10,
			Message:  "terminal",
		})
		require.NoError(t, err)

		service.updateProgress(ctx, id, "straggler", 99)
		data, _, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, status, data.Status)
		require.Equal(t, 10, data.Progress)
		require.Equal(t, "terminal", data.Message)
	}
}
