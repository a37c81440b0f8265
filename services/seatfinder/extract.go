package seatfinder

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"seatfinder-backend/lib/htmlutil"
	"seatfinder-backend/lib/textutil"
	"seatfinder-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// ExtractQuery carries the search parameters a report was fetched with;
// they are stamped onto every record extracted from that report.
type ExtractQuery struct {
	Date    string
	Session string
	Venue   Venue
}

// ExtractSeatingData converts a raw report body into an ordered list of
// seat records: containers in document order, rows in table order, left
// student before right within a row. Extraction is best-effort; a
// malformed container or row is skipped, never fatal to the rest of the
// document.
func ExtractSeatingData(ctx context.Context, body string, q ExtractQuery) []SeatRecord {
	ctx, span := tracer.Start(ctx, "ExtractSeatingData")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		slog.WarnContext(ctx, "unparseable report body", "venue", q.Venue.Code, "err", err)
		return nil
	}

	containers := doc.Find("div.content-and-table")
	if containers.Length() > 0 {
		records := extractRoomContainers(containers, q)
		span.SetAttributes(
			attribute.String("strategy", "room containers"),
			attribute.Int("records", len(records)),
		)
		return records
	}

	records := extractFallbackTables(doc, q)
	span.SetAttributes(
		attribute.String("strategy", "fallback tables"),
		attribute.Int("records", len(records)),
	)
	return records
}

type roomInfo struct {
	roomNumber  string
	examDate    string
	examSession string
}

func extractRoomContainers(containers *goquery.Selection, q ExtractQuery) []SeatRecord {
	var records []SeatRecord
	extractedAt := timezone.Now().Format(time.RFC3339)

	containers.Each(func(_ int, div *goquery.Selection) {
		info, ok := extractRoomInfo(div)
		if !ok {
			return
		}

		table := div.Find("table#maintable").First()
		if table.Length() == 0 {
			table = div.Find("table").First()
			if table.Length() == 0 {
				return
			}
		}

		dataRows(table).Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				// header row
				return
			}
			cells := row.Find("td")
			if cells.Length() < 6 {
				return
			}
			texts := htmlutil.CellTexts(cells, 6)
			records = appendRowRecords(records, texts, info, q, extractedAt)
		})
	})

	return records
}

// a row seats up to two students: columns 0-2 are the left bench side,
// columns 3-5 the right. A side counts only when all three of its fields
// survive trimming.
func appendRowRecords(records []SeatRecord, texts []string, info roomInfo, q ExtractQuery, extractedAt string) []SeatRecord {
	if texts[0] != "" && texts[1] != "" && texts[2] != "" {
		records = append(records, SeatRecord{
			Date:               q.Date,
			Session:            q.Session,
			RoomNumber:         info.roomNumber,
			ExamDate:           info.examDate,
			ExamSession:        info.examSession,
			Department:         texts[0],
			SeatNumber:         texts[1],
			RegistrationNumber: texts[2],
			VenueCode:          q.Venue.Code,
			VenueName:          q.Venue.Name,
			ExtractedAt:        extractedAt,
		})
	}
	if texts[3] != "" && texts[4] != "" && texts[5] != "" {
		records = append(records, SeatRecord{
			Date:               q.Date,
			Session:            q.Session,
			RoomNumber:         info.roomNumber,
			ExamDate:           info.examDate,
			ExamSession:        info.examSession,
			Department:         texts[3],
			SeatNumber:         texts[4],
			RegistrationNumber: texts[5],
			VenueCode:          q.Venue.Code,
			VenueName:          q.Venue.Name,
			ExtractedAt:        extractedAt,
		})
	}
	return records
}

func extractRoomInfo(div *goquery.Selection) (roomInfo, bool) {
	header := div.Find("div#datessesinfo").First()
	if header.Length() == 0 {
		return roomInfo{}, false
	}
	h4 := header.Find("h4").First()
	if h4.Length() == 0 {
		return roomInfo{}, false
	}
	// the header is parsed by label windows, so it gets whitespace
	// collapsing that the data cells must never see
	text := htmlutil.RemoveNonPrintable(textutil.NormalizeToken(h4.Text()))

	return roomInfo{
		roomNumber:  headerField(text, "ROOM NO:", 12),
		examDate:    headerField(text, "DATE : ", 13),
		examSession: headerField(text, "SESSION : ", 10),
	}, true
}

// headerField parses one labeled field out of a room header line by taking
// a fixed-width window after the label and truncating at the first space.
// This is a characterized contract with the remote report format, quirks
// included: a label that runs into a tag boundary yields a silently
// truncated token, and an absent label yields "Unknown". Do not "fix" it
// without samples of the live format.
func headerField(text, label string, window int) string {
	idx := strings.Index(text, label)
	if idx == -1 {
		return "Unknown"
	}
	start := idx + len(label)
	end := start + window
	if end > len(text) {
		end = len(text)
	}
	part := strings.TrimSpace(text[start:end])
	if space := strings.IndexByte(part, ' '); space != -1 {
		part = part[:space]
	}
	return part
}

var fallbackRoomRegex = regexp.MustCompile(`ROOM\s*(?:NO)?:?\s*([A-Z0-9]+)`)

// extractFallbackTables is the best-effort path for reports without the
// structured room containers. It has no correctness guarantee beyond the
// primary format; rows it cannot classify are dropped.
func extractFallbackTables(doc *goquery.Document, q ExtractQuery) []SeatRecord {
	var records []SeatRecord
	extractedAt := timezone.Now().Format(time.RFC3339)

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := dataRows(table)
		if rows.Length() <= 1 {
			return
		}

		info := roomInfo{
			roomNumber:  fallbackRoomNumber(table),
			examDate:    q.Date,
			examSession: q.Session,
		}

		rows.Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := row.Find("td, th")
			n := cells.Length()
			switch {
			case n >= 6:
				texts := htmlutil.CellTexts(cells, 6)
				records = appendRowRecords(records, texts, info, q, extractedAt)
			case n >= 3:
				texts := htmlutil.CellTexts(cells, 3)
				if texts[0] != "" && texts[1] != "" && texts[2] != "" {
					records = append(records, SeatRecord{
						Date:               q.Date,
						Session:            q.Session,
						RoomNumber:         info.roomNumber,
						ExamDate:           info.examDate,
						ExamSession:        info.examSession,
						Department:         texts[0],
						SeatNumber:         texts[1],
						RegistrationNumber: texts[2],
						VenueCode:          q.Venue.Code,
						VenueName:          q.Venue.Name,
						ExtractedAt:        extractedAt,
					})
				}
			}
		})
	})

	return records
}

// fallbackRoomNumber scans the text surrounding a bare table for a "ROOM"
// keyword and captures the adjacent alphanumeric token.
func fallbackRoomNumber(table *goquery.Selection) string {
	parent := table.Parent()
	if parent.Length() == 0 {
		return "Unknown"
	}
	var b strings.Builder
	for _, node := range parent.Nodes {
		b.WriteString(htmlutil.GetText(node))
	}
	text := strings.ToUpper(b.String())
	idx := strings.Index(text, "ROOM")
	if idx == -1 {
		return "Unknown"
	}
	end := idx + 20
	if end > len(text) {
		end = len(text)
	}
	groups := fallbackRoomRegex.FindStringSubmatch(text[idx:end])
	if len(groups) < 2 {
		return "Unknown"
	}
	return groups[1]
}

// dataRows prefers the tbody's rows when one exists, mirroring how the
// remote reports sometimes wrap data rows and sometimes do not.
func dataRows(table *goquery.Selection) *goquery.Selection {
	tbody := table.Find("tbody").First()
	if tbody.Length() > 0 {
		return tbody.Find("tr")
	}
	return table.Find("tr")
}
