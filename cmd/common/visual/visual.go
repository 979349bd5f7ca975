// Package visual renders a timeline into a sequence of on/off frames.
package visual

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"time"

	"github.com/gigurra/morsecast/cmd/common/timeline"
)

const (
	DefaultFPS    = 30
	DefaultWidth  = 320
	DefaultHeight = 240
)

// Frame is the state shown for one video frame.
type Frame bool

const (
	Off Frame = false
	On  Frame = true
)

func (f Frame) String() string {
	if f == On {
		return "on"
	}
	return "off"
}

// FrameCount returns how many frames an event of durationMs occupies at fps:
// the duration in frames rounded half to even, never less than one so every
// event stays visible. Rounding errors are not carried over between events.
func FrameCount(durationMs, fps int) int {
	num := int64(durationMs) * int64(fps)
	q, r := num/1000, num%1000
	switch {
	case 2*r > 1000:
		q++
	case 2*r == 1000 && q%2 == 1:
		q++
	}
	return max(1, int(q))
}

// Track is an ordered sequence of frames at a fixed frame rate.
type Track struct {
	FPS    int
	Frames []Frame
}

func (t Track) Len() int {
	return len(t.Frames)
}

// NaturalDuration is how long the frames last when each is shown for exactly
// one frame period.
func (t Track) NaturalDuration() time.Duration {
	return time.Duration(int64(len(t.Frames)) * int64(time.Second) / int64(t.FPS))
}

// Run is a stretch of identical consecutive frames.
type Run struct {
	Frame Frame
	Count int
}

// Runs groups consecutive identical frames.
func (t Track) Runs() []Run {
	var runs []Run
	for _, f := range t.Frames {
		if n := len(runs); n > 0 && runs[n-1].Frame == f {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, Run{Frame: f, Count: 1})
	}
	return runs
}

// Builder renders timelines into visual tracks.
type Builder struct {
	FPS int
}

func (b Builder) RenderVideo(tl timeline.Timeline) Track {
	return Build(tl, b.FPS)
}

// Build emits FrameCount frames per event, On for tones and Off for gaps. An
// empty timeline yields a single Off frame.
func Build(tl timeline.Timeline, fps int) Track {
	track := Track{FPS: fps}
	for _, e := range tl.Events() {
		state := Off
		if e.IsTone() {
			state = On
		}
		for range FrameCount(e.DurationMs, fps) {
			track.Frames = append(track.Frames, state)
		}
	}
	if len(track.Frames) == 0 {
		track.Frames = append(track.Frames, Off)
	}
	return track
}

// MakeFrame returns a size.X by size.Y image filled with c.
func MakeFrame(size image.Point, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// Palette maps frame states to pixels.
type Palette struct {
	Size image.Point
	On   color.Color
	Off  color.Color
}

func DefaultPalette() Palette {
	return Palette{
		Size: image.Pt(DefaultWidth, DefaultHeight),
		On:   color.White,
		Off:  color.Black,
	}
}

func (p Palette) Image(f Frame) *image.RGBA {
	if f == On {
		return MakeFrame(p.Size, p.On)
	}
	return MakeFrame(p.Size, p.Off)
}

// WritePNG encodes the image for f as PNG.
func (p Palette) WritePNG(w io.Writer, f Frame) error {
	if err := png.Encode(w, p.Image(f)); err != nil {
		return fmt.Errorf("encoding %s frame: %w", f, err)
	}
	return nil
}
