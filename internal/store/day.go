package store

import "time"

// All day keys are Beijing-local calendar dates; the upstream listings
// and the push window both speak that timezone.
var beijing = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}()

// Location returns the Beijing timezone used for all day keys.
func Location() *time.Location {
	return beijing
}

// Now returns the current time in Beijing.
func Now() time.Time {
	return time.Now().In(beijing)
}

// DayKey formats a time as a YYYYMMDD Beijing-local day key.
func DayKey(t time.Time) string {
	return t.In(beijing).Format("20060102")
}

// TodayKey returns today's day key.
func TodayKey() string {
	return DayKey(time.Now())
}

// ParseDayKey parses a YYYYMMDD day key as Beijing midnight.
func ParseDayKey(key string) (time.Time, error) {
	return time.ParseInLocation("20060102", key, beijing)
}
