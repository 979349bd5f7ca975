// Package audio renders a timeline into a tone/silence track.
package audio

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/gigurra/morsecast/cmd/common/timeline"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

const (
	DefaultSampleRate    = 44100
	DefaultFrequency     = 700 // Hz - standard morse tone
	DefaultFadeMs        = 5
	DefaultVolumeDB      = -10
	DefaultPlaceholderMs = 10

	channelCount = 2
	precision    = 2 // 16 bit
)

// Options controls how tones and silences are synthesized.
type Options struct {
	SampleRate    int
	Frequency     float64
	FadeMs        int
	VolumeDB      float64
	PlaceholderMs int // length of the silent stand-in for an empty timeline
}

func DefaultOptions() Options {
	return Options{
		SampleRate:    DefaultSampleRate,
		Frequency:     DefaultFrequency,
		FadeMs:        DefaultFadeMs,
		VolumeDB:      DefaultVolumeDB,
		PlaceholderMs: DefaultPlaceholderMs,
	}
}

// Format is the beep sample format of tracks built with these options.
func (o Options) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(o.SampleRate),
		NumChannels: channelCount,
		Precision:   precision,
	}
}

// SamplesAt converts a millisecond offset into a sample index.
func (o Options) SamplesAt(ms int) int {
	return int(int64(ms) * int64(o.SampleRate) / 1000)
}

func (o Options) samplesFor(d time.Duration) int {
	return int(int64(d) * int64(o.SampleRate) / int64(time.Second))
}

func (o Options) amplitude() float64 {
	return math.Pow(10, o.VolumeDB/20)
}

// Tone returns a sine tone n samples long with a short fade at both ends.
func Tone(o Options, n int) beep.Streamer {
	return newTone(o, n)
}

// Silence returns n samples of silence.
func Silence(n int) beep.Streamer {
	return beep.Silence(n)
}

// Builder renders timelines into audio tracks.
type Builder struct {
	Options Options
}

func (b Builder) RenderAudio(tl timeline.Timeline) Track {
	return Build(tl, b.Options)
}

// Build renders every event as a tone or a silence clip, in order. Clip
// boundaries are taken from the cumulative timeline offset, so the track is
// exactly SamplesAt(tl.TotalMs()) samples long regardless of per-clip
// rounding. An empty timeline yields a short placeholder silence.
func Build(tl timeline.Timeline, o Options) Track {
	buf := beep.NewBuffer(o.Format())
	if tl.IsEmpty() {
		buf.Append(Silence(o.SamplesAt(o.PlaceholderMs)))
		return Track{buf: buf, opts: o}
	}

	at := 0
	for _, e := range tl.Events() {
		from, to := o.SamplesAt(at), o.SamplesAt(at+e.DurationMs)
		at += e.DurationMs
		if e.IsTone() {
			buf.Append(Tone(o, to-from))
		} else {
			buf.Append(Silence(to - from))
		}
	}
	return Track{buf: buf, opts: o}
}

// Track is a rendered audio track held in memory.
type Track struct {
	buf  *beep.Buffer
	opts Options
}

// Len is the number of samples in the track.
func (t Track) Len() int {
	return t.buf.Len()
}

func (t Track) Format() beep.Format {
	return t.buf.Format()
}

func (t Track) Duration() time.Duration {
	return time.Duration(int64(t.buf.Len()) * int64(time.Second) / int64(t.opts.SampleRate))
}

// DurationMs is the track length rounded to the nearest millisecond.
func (t Track) DurationMs() int {
	rate := int64(t.opts.SampleRate)
	return int((int64(t.buf.Len())*1000 + rate/2) / rate)
}

// Streamer streams the whole track from the start.
func (t Track) Streamer() beep.StreamSeeker {
	return t.buf.Streamer(0, t.buf.Len())
}

// Conform returns a copy of the track that lasts exactly d, truncated or
// padded with trailing silence.
func (t Track) Conform(d time.Duration) Track {
	n := t.opts.samplesFor(d)
	buf := beep.NewBuffer(t.buf.Format())
	buf.Append(t.buf.Streamer(0, min(n, t.buf.Len())))
	if n > t.buf.Len() {
		buf.Append(Silence(n - t.buf.Len()))
	}
	return Track{buf: buf, opts: t.opts}
}

// WriteWAV encodes the track as a WAV file.
func (t Track) WriteWAV(w io.WriteSeeker) error {
	if err := wav.Encode(w, t.Streamer(), t.buf.Format()); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	return nil
}

type toneStreamer struct {
	samples    int
	position   int
	fade       int
	frequency  float64
	sampleRate float64
	amplitude  float64
}

func newTone(o Options, samples int) *toneStreamer {
	return &toneStreamer{
		samples:    samples,
		fade:       min(o.SamplesAt(o.FadeMs), samples/2),
		frequency:  o.Frequency,
		sampleRate: float64(o.SampleRate),
		amplitude:  o.amplitude(),
	}
}

func (t *toneStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if t.position >= t.samples {
		return 0, false
	}
	for i := range samples {
		if t.position >= t.samples {
			return i, true
		}

		phase := 2 * math.Pi * t.frequency * float64(t.position) / t.sampleRate
		value := math.Sin(phase) * t.envelope() * t.amplitude
		samples[i][0] = value
		samples[i][1] = value
		t.position++
	}
	return len(samples), true
}

// envelope fades in over the first and out over the last t.fade samples,
// keeping clicks out of symbol boundaries without extending the clip.
func (t *toneStreamer) envelope() float64 {
	if t.fade <= 0 {
		return 1
	}
	if t.position < t.fade {
		return float64(t.position) / float64(t.fade)
	}
	if remaining := t.samples - 1 - t.position; remaining < t.fade {
		return float64(remaining) / float64(t.fade)
	}
	return 1
}

func (t *toneStreamer) Err() error {
	return nil
}
