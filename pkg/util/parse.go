package util

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var timespanRe = regexp.MustCompile(`^(\d+)([smhdw])$`)

// ParseTimespan parses a report window shorthand such as "30m", "1h" or
// "7d". The unit can be 's', 'm', 'h', 'd' (days) or 'w' (weeks).
func ParseTimespan(input string) (time.Duration, error) {
	matches := timespanRe.FindStringSubmatch(input)
	if matches == nil {
		return 0, fmt.Errorf("invalid timespan format: %s", input)
	}
	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid timespan number: %s", matches[1])
	}
	switch matches[2] {
	case "s":
		return time.Duration(value) * time.Second, nil
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	case "w":
		return time.Duration(value) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid timespan unit: %s", matches[2])
	}
}
