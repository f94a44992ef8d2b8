package util

import (
	"strconv"
	"strings"
	"time"
)

func ParseInt(str string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
		return v
	}
	return fallback
}

func ParseBool(str string, fallback bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(str)); err == nil {
		return v
	}
	return fallback
}

// ParseMillis accepts either a Go duration ("250ms", "5s") or a bare
// millisecond count and returns the value in milliseconds.
func ParseMillis(str string, fallback int) int {
	str = strings.TrimSpace(str)
	if d, err := time.ParseDuration(str); err == nil {
		return int(d / time.Millisecond)
	}
	return ParseInt(str, fallback)
}
