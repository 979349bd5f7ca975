// Package timing derives Morse element durations from a transmission speed.
package timing

import (
	"fmt"
	"time"
)

const (
	MinWPM     = 1
	MaxWPM     = 100
	DefaultWPM = 10

	// "PARIS " is 50 units long, so one unit lasts 60s / (50 * wpm) = 1200ms / wpm.
	parisMs = 1200
)

// Params holds the canonical durations, in milliseconds, for one speed.
type Params struct {
	WPM         int
	UnitMs      int
	DotMs       int
	DashMs      int
	IntraGapMs  int
	LetterGapMs int
	WordGapMs   int
}

// Derive returns the durations for wpm. The unit never drops below 1ms, so
// every duration is positive. wpm must be > 0; validating it is the caller's
// job.
func Derive(wpm int) Params {
	if wpm <= 0 {
		panic(fmt.Sprintf("timing: wpm must be positive, got %d", wpm))
	}
	unit := max(1, parisMs/wpm)
	return Params{
		WPM:         wpm,
		UnitMs:      unit,
		DotMs:       unit,
		DashMs:      3 * unit,
		IntraGapMs:  unit,
		LetterGapMs: 3 * unit,
		WordGapMs:   7 * unit,
	}
}

// InRange reports whether wpm is an accepted transmission speed.
func InRange(wpm int) bool {
	return wpm >= MinWPM && wpm <= MaxWPM
}

// Unit returns the unit duration.
func (p Params) Unit() time.Duration {
	return time.Duration(p.UnitMs) * time.Millisecond
}
