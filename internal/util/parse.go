package util

import "strconv"

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParsePageSize parses a page size query param, clamped to [1, max]
func ParsePageSize(s string, defaultValue, max int) int {
	size := ParseInt(s, defaultValue)
	if size < 1 {
		return defaultValue
	}
	if size > max {
		return max
	}
	return size
}
