package config

import (
	"fmt"
	"strings"
	"time"
)

// TimeUnit enumerates the time granularities accepted for rate and duration
// encoding. The canonical form is upper-case; parsing is case-insensitive.
type TimeUnit string

const (
	UnitNanoseconds  TimeUnit = "NANOSECONDS"
	UnitMicroseconds TimeUnit = "MICROSECONDS"
	UnitMilliseconds TimeUnit = "MILLISECONDS"
	UnitSeconds      TimeUnit = "SECONDS"
	UnitMinutes      TimeUnit = "MINUTES"
	UnitHours        TimeUnit = "HOURS"
	UnitDays         TimeUnit = "DAYS"
)

// TimeUnits lists every accepted unit in ascending order of magnitude.
var TimeUnits = []TimeUnit{
	UnitNanoseconds,
	UnitMicroseconds,
	UnitMilliseconds,
	UnitSeconds,
	UnitMinutes,
	UnitHours,
	UnitDays,
}

var unitDurations = map[TimeUnit]time.Duration{
	UnitNanoseconds:  time.Nanosecond,
	UnitMicroseconds: time.Microsecond,
	UnitMilliseconds: time.Millisecond,
	UnitSeconds:      time.Second,
	UnitMinutes:      time.Minute,
	UnitHours:        time.Hour,
	UnitDays:         24 * time.Hour,
}

// ParseTimeUnit resolves a raw string to a canonical TimeUnit.
func ParseTimeUnit(raw string) (TimeUnit, error) {
	u := TimeUnit(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := unitDurations[u]; !ok {
		return "", fmt.Errorf("%w: %q (expected one of %v)", ErrInvalidTimeUnit, raw, TimeUnits)
	}
	return u, nil
}

// Valid reports whether the unit is a member of the enumerated set.
func (u TimeUnit) Valid() bool {
	_, ok := unitDurations[u]
	return ok
}

// Duration returns the length of one unit. Zero for an invalid unit.
func (u TimeUnit) Duration() time.Duration {
	return unitDurations[u]
}

// String returns the canonical upper-case name.
func (u TimeUnit) String() string { return string(u) }

// Label returns the lower-case form used in JSON documents ("milliseconds").
func (u TimeUnit) Label() string { return strings.ToLower(string(u)) }
