package commands

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"seatfinder-backend/lib/serviceutil"
	"seatfinder-backend/lib/sessionstore"
	"seatfinder-backend/services/seatfinder"

	"github.com/spf13/cobra"
)

var (
	searchRoll    string
	searchDate    string
	searchSession string
	searchVenue   string
)

func init() {
	searchCmd.Flags().StringVar(&searchRoll, "roll", "", "Registration number to search for.")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "Exam date in DD/MM/YYYY format.")
	searchCmd.Flags().StringVar(&searchSession, "session", "", "Restrict to one exam session (FN or AN).")
	searchCmd.Flags().StringVar(&searchVenue, "venue", "", "Restrict to one venue code (see `seatctl venues`).")
	searchCmd.MarkFlagRequired("roll")
	searchCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(searchCmd)
}

// resolveScope narrows the venue and session fan-out to the optional
// --venue/--session filters. Empty filters keep the full table.
func resolveScope(venueCode, sessionCode string) ([]seatfinder.Venue, []string, error) {
	venues := seatfinder.DefaultVenues()
	if venueCode != "" {
		venue, ok := seatfinder.VenueByCode(venueCode)
		if !ok {
			codes := make([]string, 0, len(venues))
			for _, v := range venues {
				codes = append(codes, v.Code)
			}
			return nil, nil, fmt.Errorf(
				"unknown venue code %q, expected one of: %s",
				venueCode, strings.Join(codes, ", "),
			)
		}
		venues = []seatfinder.Venue{venue}
	}

	sessions := seatfinder.SessionCodes()
	if sessionCode != "" {
		code := strings.ToUpper(sessionCode)
		found := false
		for _, s := range sessions {
			if s == code {
				found = true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf(
				"unknown session code %q, expected one of: %s",
				sessionCode, strings.Join(sessions, ", "),
			)
		}
		sessions = []string{code}
	}

	return venues, sessions, nil
}

var searchCmd = &cobra.Command{
	Use:   "search --roll <registration number> --date <DD/MM/YYYY> [--session FN|AN] [--venue <code>]",
	Short: "Searches venues and sessions for a seat allotment.",
	Run: func(cmd *cobra.Command, args []string) {
		venues, sessions, err := resolveScope(searchVenue, searchSession)
		if err != nil {
			serviceutil.Fatal("resolve search scope", err)
		}

		cfg := seatfinder.ConfigFromEnv()
		store := sessionstore.NewMemoryStore(cfg.SessionTTL)
		service := seatfinder.NewServiceWithScope(store, cfg, venues, sessions)

		slog.Info(
			"searching",
			"roll", searchRoll,
			"date", searchDate,
			"venues", len(venues),
			"sessions", sessions,
		)

		t1 := time.Now()
		_, results, err := service.StartSearch(cmd.Context(), searchRoll, searchDate)
		if err != nil {
			slog.Error("search failed", "err", err)
			return
		}
		slog.Info("search time", "seconds", time.Since(t1).Seconds())

		if len(results) == 0 {
			fmt.Println("No seat allotments found.")
			return
		}
		fmt.Println(seatfinder.ResultsTable(results))
	},
}
