package utils

import (
	"fmt"
	"time"
)

var istLocation = loadLocation("Asia/Kolkata", 5*60*60+30*60)

func loadLocation(name string, offsetSeconds int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("IST", offsetSeconds)
	}
	return loc
}

// TimeNowIST returns the current time in the NSE exchange timezone.
func TimeNowIST() time.Time {
	return time.Now().In(istLocation)
}

func PrettyDate(date time.Time) string {
	date = date.In(istLocation)
	return fmt.Sprintf("%02d %s %d - %02d:%02d IST",
		date.Day(),
		date.Month().String()[:3],
		date.Year(),
		date.Hour(),
		date.Minute(),
	)
}
