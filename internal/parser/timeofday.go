package parser

import (
	"strings"

	"github.com/zhaobenny/babylog/internal/model"
)

// bareHourMinute is the minute assumed when only an hour is written ("9" means 09:30)
const bareHourMinute = 30

// ParseTime parses a time token such as "9", "09:00" or "9:5".
// A bare one or two digit hour yields half past that hour. The second
// return value is false when the token is not a recognized time.
func ParseTime(s string) (model.TimeOfDay, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.TimeOfDay{}, false
	}

	if allDigits(s) {
		if len(s) > 2 {
			return model.TimeOfDay{}, false
		}
		h := atoi(s)
		if h > 23 {
			return model.TimeOfDay{}, false
		}
		return model.NewTimeOfDay(h, bareHourMinute), true
	}

	hour, minute, ok := strings.Cut(s, ":")
	if !ok || strings.Contains(minute, ":") {
		return model.TimeOfDay{}, false
	}
	if !isClockField(hour) || !isClockField(minute) {
		return model.TimeOfDay{}, false
	}

	t := model.NewTimeOfDay(atoi(hour), atoi(minute))
	if !t.Valid() {
		return model.TimeOfDay{}, false
	}
	return t, true
}

// isClockField reports whether s is one or two ASCII digits
func isClockField(s string) bool {
	return len(s) >= 1 && len(s) <= 2 && allDigits(s)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// atoi converts a short run of ASCII digits; callers check allDigits first
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
