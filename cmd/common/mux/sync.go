// Package mux reconciles the audio and visual tracks and combines them into a
// single audio+video file.
package mux

import (
	"time"

	"github.com/gigurra/morsecast/cmd/common/audio"
	"github.com/gigurra/morsecast/cmd/common/visual"
)

// Plan is a pair of tracks ready to be encoded together.
type Plan struct {
	TotalMs int           // authoritative timeline duration
	Natural time.Duration // visual duration before reconciliation
	Final   time.Duration // duration of the artifact
	Hold    time.Duration // extra display time given to the last frame
	Audio   audio.Track   // conformed to Final
	Video   visual.Track
}

// Synchronize stretches the last frame when per-event frame rounding left the
// video shorter than the timeline, so the video is never cut short, and then
// conforms the audio to the resulting duration.
func Synchronize(a audio.Track, v visual.Track, totalMs int) Plan {
	natural := v.NaturalDuration()
	final := max(natural, time.Duration(totalMs)*time.Millisecond)
	return Plan{
		TotalMs: totalMs,
		Natural: natural,
		Final:   final,
		Hold:    final - natural,
		Audio:   a.Conform(final),
		Video:   v,
	}
}

// Segment is a run of identical frames with its display duration.
type Segment struct {
	Frame    visual.Frame
	Duration time.Duration
}

// Segments lists the frame runs of the plan with their display durations; the
// last one includes Hold.
func (p Plan) Segments() []Segment {
	runs := p.Video.Runs()
	segments := make([]Segment, len(runs))
	for i, r := range runs {
		segments[i] = Segment{
			Frame:    r.Frame,
			Duration: time.Duration(int64(r.Count) * int64(time.Second) / int64(p.Video.FPS)),
		}
	}
	if n := len(segments); n > 0 {
		segments[n-1].Duration += p.Hold
	}
	return segments
}
