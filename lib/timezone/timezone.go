package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
}

// force timezone to IST because exam dates on the venue reports
// are campus-local, and a server deployed in another region would
// otherwise shift .Year()/Month()/Day() across midnight
func Now() time.Time {
	return time.Now().In(Location)
}
