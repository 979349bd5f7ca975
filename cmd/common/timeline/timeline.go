// Package timeline turns text into an ordered sequence of timed Morse events.
//
// The sequence is computed in one pass and never mutated afterwards; both the
// audio and the visual track are rendered from the same Timeline.
package timeline

import (
	"strings"
	"time"

	"github.com/gigurra/morsecast/cmd/common/symbols"
	"github.com/gigurra/morsecast/cmd/common/timing"
	"github.com/samber/lo"
)

// Kind is the type of a timeline event.
type Kind int

const (
	Dot Kind = iota
	Dash
	Gap
)

func (k Kind) String() string {
	switch k {
	case Dot:
		return "dot"
	case Dash:
		return "dash"
	case Gap:
		return "gap"
	default:
		return "unknown"
	}
}

// Event is one typed, timed interval of the transmission.
type Event struct {
	Kind       Kind
	DurationMs int
}

// IsTone reports whether the event is audible (a dot or a dash).
func (e Event) IsTone() bool {
	return e.Kind == Dot || e.Kind == Dash
}

func (e Event) Duration() time.Duration {
	return time.Duration(e.DurationMs) * time.Millisecond
}

// Timeline is an immutable, ordered list of events.
type Timeline struct {
	events  []Event
	totalMs int
}

// Events returns a copy of the events in transmission order.
func (t Timeline) Events() []Event {
	return append([]Event(nil), t.events...)
}

func (t Timeline) Len() int {
	return len(t.events)
}

func (t Timeline) IsEmpty() bool {
	return len(t.events) == 0
}

// TotalMs is the sum of all event durations.
func (t Timeline) TotalMs() int {
	return t.totalMs
}

func (t Timeline) Duration() time.Duration {
	return time.Duration(t.totalMs) * time.Millisecond
}

// Offsets returns the start offset, in milliseconds, of every event.
func (t Timeline) Offsets() []int {
	offsets := make([]int, len(t.events))
	at := 0
	for i, e := range t.events {
		offsets[i] = at
		at += e.DurationMs
	}
	return offsets
}

// Stats summarises a timeline.
type Stats struct {
	Dots      int
	Dashes    int
	Gaps      int
	ToneMs    int
	SilenceMs int
}

func (t Timeline) Stats() Stats {
	tones := lo.Filter(t.events, func(e Event, _ int) bool { return e.IsTone() })
	toneMs := lo.SumBy(tones, func(e Event) int { return e.DurationMs })
	return Stats{
		Dots:      lo.CountBy(t.events, func(e Event) bool { return e.Kind == Dot }),
		Dashes:    lo.CountBy(t.events, func(e Event) bool { return e.Kind == Dash }),
		Gaps:      lo.CountBy(t.events, func(e Event) bool { return e.Kind == Gap }),
		ToneMs:    toneMs,
		SilenceMs: t.totalMs - toneMs,
	}
}

// Sequence computes the timeline for text at the given timing.
//
// Unsupported characters are skipped without emitting anything. A letter is
// followed by an inter-letter gap when another character follows it and that
// character is not a word separator; the check looks at the next raw
// character, so an unsupported one still earns the gap. A word separator
// emits word gap minus letter gap, since the preceding letter normally
// contributed the rest.
func Sequence(text string, p timing.Params) Timeline {
	chars := []rune(strings.ToUpper(text))
	b := builder{}

	for i, c := range chars {
		sym, ok := symbols.Lookup(c)
		if !ok {
			continue
		}

		if sym.IsWordSeparator() {
			b.add(Gap, p.WordGapMs-p.LetterGapMs)
			continue
		}

		marks := sym.Marks()
		for j, m := range marks {
			switch m {
			case symbols.Dot:
				b.add(Dot, p.DotMs)
			case symbols.Dash:
				b.add(Dash, p.DashMs)
			}
			if j < len(marks)-1 {
				b.add(Gap, p.IntraGapMs)
			}
		}

		if i < len(chars)-1 && !isWordSeparator(chars[i+1]) {
			b.add(Gap, p.LetterGapMs)
		}
	}

	return Timeline{events: b.events, totalMs: b.totalMs}
}

func isWordSeparator(r rune) bool {
	sym, ok := symbols.Lookup(r)
	return ok && sym.IsWordSeparator()
}

type builder struct {
	events  []Event
	totalMs int
}

func (b *builder) add(kind Kind, durationMs int) {
	b.events = append(b.events, Event{Kind: kind, DurationMs: durationMs})
	b.totalMs += durationMs
}
