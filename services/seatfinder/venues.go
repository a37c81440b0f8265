package seatfinder

// Venue is one physical exam location with its own reporting endpoint.
type Venue struct {
	Code    string
	Name    string
	BaseUrl string
}

// the venue set is fixed per deployment; the report endpoints are owned by
// the exam cell and do not change without notice
func DefaultVenues() []Venue {
	return []Venue{
		{Code: "main", Name: "Main Campus", BaseUrl: "https://examcell.srmist.edu.in/main/seating/bench/get_datewise_report.php"},
		{Code: "tp", Name: "Tech Park", BaseUrl: "https://examcell.srmist.edu.in/tp/seating/bench/get_datewise_report.php"},
		{Code: "tp2", Name: "Tech Park 2", BaseUrl: "https://examcell.srmist.edu.in/tp2/bench/get_datewise_report.php"},
		{Code: "bio", Name: "Biotech and Architecture", BaseUrl: "https://examcell.srmist.edu.in/bio/seating/bench/get_datewise_report.php"},
		{Code: "ub", Name: "University Building", BaseUrl: "https://examcell.srmist.edu.in/ub/seating/bench/get_datewise_report.php"},
	}
}

// VenueByCode looks a venue up in the default table.
func VenueByCode(code string) (Venue, bool) {
	for _, v := range DefaultVenues() {
		if v.Code == code {
			return v, true
		}
	}
	return Venue{}, false
}

const (
	SessionForenoon  = "FN"
	SessionAfternoon = "AN"
)

func SessionCodes() []string {
	return []string{SessionForenoon, SessionAfternoon}
}

func SessionName(code string) string {
	if code == SessionForenoon {
		return "Forenoon"
	}
	return "Afternoon"
}

// VenueSessionTask is one venue×exam-session combination of a search batch.
type VenueSessionTask struct {
	Venue   Venue
	Session string
}
