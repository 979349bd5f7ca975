package mux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gigurra/morsecast/cmd/common/visual"
)

const (
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"

	audioFile  = "audio.wav"
	framesFile = "frames.ffconcat"
)

// Job describes one encode: prepared inputs in a workspace and the file to
// produce.
type Job struct {
	Frames     string // ffconcat script listing frame images and their durations
	Audio      string // WAV file, exactly Duration long
	Output     string
	FPS        int
	Duration   time.Duration
	VideoCodec string
	AudioCodec string
}

// Encoder turns a prepared Job into an audio+video file.
type Encoder interface {
	Encode(ctx context.Context, job Job) error
}

// Options controls muxing.
type Options struct {
	Palette    visual.Palette
	VideoCodec string
	AudioCodec string
	TempDir    string // parent of the per-render workspace, OS temp dir if empty
	Prefix     string // workspace directory name prefix
}

func DefaultOptions() Options {
	return Options{
		Palette:    visual.DefaultPalette(),
		VideoCodec: DefaultVideoCodec,
		AudioCodec: DefaultAudioCodec,
		Prefix:     "morsecast",
	}
}

// Mux writes the plan's inputs into a temporary workspace, has enc encode them
// into a partial file next to output and renames it into place. The workspace
// and any partial output are removed on every path, so output is either the
// complete artifact or untouched.
func Mux(ctx context.Context, enc Encoder, plan Plan, output string, opts Options) (err error) {
	ws, err := NewWorkspace(opts.TempDir, opts.Prefix)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, ws.Close())
	}()

	audioPath, err := ws.WriteFile(audioFile, func(f *os.File) error {
		return plan.Audio.WriteWAV(f)
	})
	if err != nil {
		return err
	}

	framesPath, err := writeFrames(ws, plan, opts.Palette)
	if err != nil {
		return err
	}

	partial, err := partialPath(output)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(partial)
		}
	}()

	err = enc.Encode(ctx, Job{
		Frames:     framesPath,
		Audio:      audioPath,
		Output:     partial,
		FPS:        plan.Video.FPS,
		Duration:   plan.Final,
		VideoCodec: opts.VideoCodec,
		AudioCodec: opts.AudioCodec,
	})
	if err != nil {
		return err
	}

	if err = os.Rename(partial, output); err != nil {
		return fmt.Errorf("moving artifact into place: %w", err)
	}
	return nil
}

// partialPath reserves a hidden file beside output, keeping the extension so
// the encoder still picks the right container.
func partialPath(output string) (string, error) {
	dir, base := filepath.Split(output)
	if dir == "" {
		dir = "."
	}
	ext := filepath.Ext(base)
	f, err := os.CreateTemp(dir, "."+strings.TrimSuffix(base, ext)+".partial-*"+ext)
	if err != nil {
		return "", fmt.Errorf("reserving output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func writeFrames(ws *Workspace, plan Plan, palette visual.Palette) (string, error) {
	for _, f := range []visual.Frame{visual.On, visual.Off} {
		_, err := ws.WriteFile(frameFile(f), func(file *os.File) error {
			return palette.WritePNG(file, f)
		})
		if err != nil {
			return "", err
		}
	}
	return ws.WriteFile(framesFile, func(f *os.File) error {
		return WriteConcat(f, plan.Segments())
	})
}

func frameFile(f visual.Frame) string {
	return f.String() + ".png"
}

// WriteConcat writes an ffconcat script showing each segment's frame image for
// its duration. The last entry is repeated without a duration, otherwise the
// concat demuxer ignores the final duration.
func WriteConcat(w io.Writer, segments []Segment) error {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, s := range segments {
		fmt.Fprintf(&b, "file '%s'\n", frameFile(s.Frame))
		fmt.Fprintf(&b, "duration %.6f\n", s.Duration.Seconds())
	}
	if n := len(segments); n > 0 {
		fmt.Fprintf(&b, "file '%s'\n", frameFile(segments[n-1].Frame))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing concat script: %w", err)
	}
	return nil
}
