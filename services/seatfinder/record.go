package seatfinder

import "seatfinder-backend/lib/sessionstore"

// SeatRecord is one parsed row of a venue seating report. Seat and
// registration numbers are copied verbatim from the source table apart
// from trimming; records are immutable once produced.
type SeatRecord struct {
	Date               string `json:"date"`
	Session            string `json:"session"`
	RoomNumber         string `json:"room_number"`
	ExamDate           string `json:"exam_date"`
	ExamSession        string `json:"exam_session"`
	Department         string `json:"department"`
	SeatNumber         string `json:"seat_number"`
	RegistrationNumber string `json:"registration_number"`
	VenueCode          string `json:"venue_code"`
	VenueName          string `json:"venue_name"`
	ExtractedAt        string `json:"extracted_at"`
}

func formatResults(matches []SeatRecord) []sessionstore.SeatResult {
	formatted := []sessionstore.SeatResult{}
	for _, m := range matches {
		formatted = append(formatted, sessionstore.SeatResult{
			RoomNumber:         m.RoomNumber,
			SeatNumber:         m.SeatNumber,
			Session:            m.Session,
			SessionName:        SessionName(m.Session),
			Date:               m.Date,
			Department:         m.Department,
			RegistrationNumber: m.RegistrationNumber,
			VenueCode:          m.VenueCode,
			VenueName:          m.VenueName,
		})
	}
	return formatted
}
