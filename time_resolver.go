package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// To12Hour converts a 24-hour "HH:MM" config time into the "h:mm am/pm" form
// the listing uses for its event time labels. Noon maps to "12:.. pm" and
// midnight to "12:.. am".
func To12Hour(time24 string) (string, error) {
	parts := strings.Split(time24, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: %q", ErrBadTimeFormat, time24)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadTimeFormat, time24)
	}
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadTimeFormat, time24)
	}

	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}

	return fmt.Sprintf("%d:%s %s", hour12, parts[1], suffix), nil
}

// TargetDate resolves the next calendar date falling on the requested weekday,
// always within the coming week. A delta of exactly one day is pushed out a
// full week unless next-day booking is allowed; the portal opens registration
// too close to start time for a reliable next-day claim.
func TargetDate(today time.Time, day time.Weekday, allowTomorrow bool) time.Time {
	diff := int(day) - int(today.Weekday())
	if diff < 0 {
		diff += 7
	}
	if diff == 1 && !allowTomorrow {
		diff += 7
	}

	return today.AddDate(0, 0, diff)
}

// DateHeader renders a date the way the listing's marker rows do, e.g. "Tue, Jun 3".
// The day of month is not zero padded.
func DateHeader(t time.Time) string {
	return t.Format("Mon, Jan 2")
}

var weekdayNames = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// ParseWeekday maps a full English weekday name from the event catalog to a
// time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	day, ok := weekdayNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown day of week %q", name)
	}
	return day, nil
}
