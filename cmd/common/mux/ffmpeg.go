package mux

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/GiGurra/cmder"
)

// ErrEncoderUnavailable means the encoder binary could not be found.
var ErrEncoderUnavailable = errors.New("encoder unavailable")

// FFmpeg encodes jobs by running the ffmpeg binary.
type FFmpeg struct {
	Binary  string        // defaults to "ffmpeg"
	Timeout time.Duration // zero means no limit
}

func (f FFmpeg) binary() string {
	if f.Binary == "" {
		return "ffmpeg"
	}
	return f.Binary
}

// Args returns the ffmpeg arguments for job.
func (f FFmpeg) Args(job Job) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", job.Frames,
		"-i", job.Audio,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", job.VideoCodec, "-pix_fmt", "yuv420p", "-r", strconv.Itoa(job.FPS),
		"-c:a", job.AudioCodec,
		"-t", strconv.FormatFloat(job.Duration.Seconds(), 'f', 6, 64),
		job.Output,
	}
}

func (f FFmpeg) Encode(ctx context.Context, job Job) error {
	if _, err := exec.LookPath(f.binary()); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncoderUnavailable, f.binary(), err)
	}

	spec := cmder.New(append([]string{f.binary()}, f.Args(job)...)...)
	if f.Timeout > 0 {
		spec = spec.WithAttemptTimeout(f.Timeout)
	}
	result := spec.Run(ctx)
	if result.Err != nil {
		if result.Combined != "" {
			return fmt.Errorf("ffmpeg failed: %w\n%s", result.Err, result.Combined)
		}
		return fmt.Errorf("ffmpeg failed: %w", result.Err)
	}
	return nil
}
