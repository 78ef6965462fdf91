package core

import (
	"strings"
	"time"
)

// NowFunc is mockable in tests.
var NowFunc = time.Now

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// CleanCode trims and upper-cases codes such as "cs3401" or "r2024".
func CleanCode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// Now returns the current UTC time truncated to the precision kept by the databases.
func Now() time.Time {
	return NowFunc().UTC().Truncate(time.Microsecond)
}
