package seatfinder

import (
	"fmt"
	"net/url"
	"strings"

	"seatfinder-backend/lib/sessionstore"
	"seatfinder-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WhatsAppMessage renders a share message for a result set: a compact card
// for a single exam, a numbered schedule for several.
func WhatsAppMessage(results []sessionstore.SeatResult) string {
	first := results[0]

	if len(results) == 1 {
		return fmt.Sprintf(
			"🎓 SRM Exam Details\n\n"+
				"📝 Registration: %s\n"+
				"🏢 Room: %s\n"+
				"💺 Seat: %s\n"+
				"📅 Date: %s\n"+
				"⏰ Session: %s\n"+
				"🏫 Venue: %s\n"+
				"🎯 Department: %s\n\n"+
				"✨ Generated by SRM Seat Finder",
			first.RegistrationNumber, first.RoomNumber, first.SeatNumber,
			first.Date, first.SessionName, first.VenueName, first.Department,
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b,
		"🎓 SRM Exam Schedule\n\n📝 Registration: %s\n🎯 Department: %s\n\n",
		first.RegistrationNumber, first.Department,
	)
	for i, r := range results {
		fmt.Fprintf(&b, "📋 Exam %d:\n", i+1)
		fmt.Fprintf(&b, "📅 Date: %s\n", r.Date)
		fmt.Fprintf(&b, "⏰ Session: %s (%s)\n", r.SessionName, r.Session)
		fmt.Fprintf(&b, "🏢 Room: %s\n", r.RoomNumber)
		fmt.Fprintf(&b, "💺 Seat: %s\n", r.SeatNumber)
		fmt.Fprintf(&b, "🏫 Venue: %s\n\n", r.VenueName)
	}
	b.WriteString("✨ Generated by SRM Seat Finder")
	return b.String()
}

func WhatsAppLink(results []sessionstore.SeatResult) string {
	return "https://wa.me/?text=" + url.QueryEscape(WhatsAppMessage(results))
}

// TextDocument renders a downloadable plain-text seat schedule.
func TextDocument(results []sessionstore.SeatResult) string {
	first := results[0]

	var b strings.Builder
	b.WriteString("SRM EXAM SEAT ALLOCATION\n")
	b.WriteString("========================\n\n")
	fmt.Fprintf(&b, "Registration Number: %s\n", first.RegistrationNumber)
	fmt.Fprintf(&b, "Department:          %s\n", first.Department)
	fmt.Fprintf(&b, "Total Exams:         %d\n\n", len(results))

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Date", "Session", "Room", "Seat", "Venue"})
	for i, r := range results {
		t.AppendRow(table.Row{
			i + 1,
			r.Date,
			fmt.Sprintf("%s (%s)", r.SessionName, r.Session),
			r.RoomNumber,
			r.SeatNumber,
			r.VenueName,
		})
	}
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Generated: %s\n", timezone.Now().Format("02 January 2006 at 15:04"))
	b.WriteString("Powered by SRM Seat Finder\n")
	return b.String()
}

func ExportFilename() string {
	return fmt.Sprintf("exam_schedule_%s.txt", timezone.Now().Format("20060102_150405"))
}

// ResultsTable renders results for terminal output.
func ResultsTable(results []sessionstore.SeatResult) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Registration", "Date", "Session", "Room", "Seat", "Department", "Venue"})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.RegistrationNumber,
			r.Date,
			fmt.Sprintf("%s (%s)", r.SessionName, r.Session),
			r.RoomNumber,
			r.SeatNumber,
			r.Department,
			r.VenueName,
		})
	}
	return t.Render()
}
