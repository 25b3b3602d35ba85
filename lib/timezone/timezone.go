package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Australia/Melbourne")
	if err != nil {
		panic(err)
	}
}

// force the timezone to be Melbourne's because the upstream pages publish
// bare local dates, and our servers don't necessarily run in Victoria which
// would shift date math based on <time.Time>.Year()/Month()/Day()/Hour()/...
func Now() time.Time {
	return time.Now().In(Location)
}
