// Package config provides configuration loading for morsecast.
package config

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gigurra/morsecast/cmd/common"
	"github.com/gigurra/morsecast/cmd/common/audio"
	"github.com/gigurra/morsecast/cmd/common/mux"
	"github.com/gigurra/morsecast/cmd/common/timing"
	"github.com/gigurra/morsecast/cmd/common/visual"
	"github.com/samber/lo"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the morsecast configuration file structure.
type Config struct {
	WPM    int          `toml:"wpm"`
	Audio  AudioConfig  `toml:"audio"`
	Video  VideoConfig  `toml:"video"`
	Output OutputConfig `toml:"output"`
	FFmpeg FFmpegConfig `toml:"ffmpeg"`
}

type AudioConfig struct {
	Frequency     float64 `toml:"frequency"`
	SampleRate    int     `toml:"sample_rate"`
	FadeMs        int     `toml:"fade_ms"`
	VolumeDB      float64 `toml:"volume_db"`
	PlaceholderMs int     `toml:"placeholder_ms"`
	Codec         string  `toml:"codec"`
}

type VideoConfig struct {
	FPS      int    `toml:"fps"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	OnColor  string `toml:"on_color"`
	OffColor string `toml:"off_color"`
	Codec    string `toml:"codec"`
}

type OutputConfig struct {
	Dir       string `toml:"dir"`
	Container string `toml:"container"`
	TempDir   string `toml:"temp_dir"`
}

type FFmpegConfig struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		WPM: timing.DefaultWPM,
		Audio: AudioConfig{
			Frequency:     audio.DefaultFrequency,
			SampleRate:    audio.DefaultSampleRate,
			FadeMs:        audio.DefaultFadeMs,
			VolumeDB:      audio.DefaultVolumeDB,
			PlaceholderMs: audio.DefaultPlaceholderMs,
			Codec:         mux.DefaultAudioCodec,
		},
		Video: VideoConfig{
			FPS:      visual.DefaultFPS,
			Width:    visual.DefaultWidth,
			Height:   visual.DefaultHeight,
			OnColor:  "white",
			OffColor: "black",
			Codec:    mux.DefaultVideoCodec,
		},
		Output: OutputConfig{
			Dir:       "Outputs",
			Container: "mp4",
		},
		FFmpeg: FFmpegConfig{
			Binary: "ffmpeg",
		},
	}
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(common.ConfigDir(), "config.toml")
}

// Load reads the config at path over the defaults.
// Returns the default config if the file doesn't exist.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to stat config: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate checks the settings the engine cannot work without.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}
	check(timing.InRange(c.WPM), "wpm must be between %d and %d, got %d", timing.MinWPM, timing.MaxWPM, c.WPM)
	check(c.Audio.Frequency > 0, "audio.frequency must be > 0")
	check(c.Audio.SampleRate > 0, "audio.sample_rate must be > 0")
	check(c.Audio.FadeMs >= 0, "audio.fade_ms must be >= 0")
	check(c.Audio.PlaceholderMs >= 1, "audio.placeholder_ms must be >= 1")
	check(c.Audio.Codec != "", "audio.codec must not be empty")
	check(c.Video.FPS > 0, "video.fps must be > 0")
	check(c.Video.Width > 0 && c.Video.Height > 0, "video size must be positive, got %dx%d", c.Video.Width, c.Video.Height)
	// yuv420p subsamples chroma 2x2
	check(c.Video.Width%2 == 0 && c.Video.Height%2 == 0, "video size must be even, got %dx%d", c.Video.Width, c.Video.Height)
	check(c.Video.Codec != "", "video.codec must not be empty")
	check(c.Output.Container != "", "output.container must not be empty")
	check(c.FFmpeg.TimeoutSeconds >= 0, "ffmpeg.timeout_seconds must be >= 0")
	if _, err := ParseColor(c.Video.OnColor); err != nil {
		errs = append(errs, fmt.Errorf("%w: video.on_color: %w", ErrInvalid, err))
	}
	if _, err := ParseColor(c.Video.OffColor); err != nil {
		errs = append(errs, fmt.Errorf("%w: video.off_color: %w", ErrInvalid, err))
	}
	return errors.Join(errs...)
}

func (c Config) AudioOptions() audio.Options {
	return audio.Options{
		SampleRate:    c.Audio.SampleRate,
		Frequency:     c.Audio.Frequency,
		FadeMs:        c.Audio.FadeMs,
		VolumeDB:      c.Audio.VolumeDB,
		PlaceholderMs: c.Audio.PlaceholderMs,
	}
}

func (c Config) Palette() (visual.Palette, error) {
	on, err := ParseColor(c.Video.OnColor)
	if err != nil {
		return visual.Palette{}, err
	}
	off, err := ParseColor(c.Video.OffColor)
	if err != nil {
		return visual.Palette{}, err
	}
	return visual.Palette{Size: image.Pt(c.Video.Width, c.Video.Height), On: on, Off: off}, nil
}

func (c Config) MuxOptions() (mux.Options, error) {
	palette, err := c.Palette()
	if err != nil {
		return mux.Options{}, err
	}
	opts := mux.DefaultOptions()
	opts.Palette = palette
	opts.VideoCodec = c.Video.Codec
	opts.AudioCodec = c.Audio.Codec
	opts.TempDir = c.Output.TempDir
	return opts, nil
}

func (c Config) Encoder() mux.FFmpeg {
	return mux.FFmpeg{
		Binary:  c.FFmpeg.Binary,
		Timeout: time.Duration(c.FFmpeg.TimeoutSeconds) * time.Second,
	}
}

var namedColors = map[string]color.RGBA{
	"black":   {0, 0, 0, 255},
	"white":   {255, 255, 255, 255},
	"red":     {255, 0, 0, 255},
	"green":   {0, 255, 0, 255},
	"blue":    {0, 0, 255, 255},
	"yellow":  {255, 255, 0, 255},
	"cyan":    {0, 255, 255, 255},
	"magenta": {255, 0, 255, 255},
	"gray":    {128, 128, 128, 255},
}

// ColorNames lists the accepted colour names.
func ColorNames() []string {
	names := lo.Keys(namedColors)
	slices.Sort(names)
	return names
}

// ParseColor accepts a colour name, #rrggbb or #rgb.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 3) {
		return color.RGBA{}, fmt.Errorf("unknown color %q (use #rrggbb, #rgb or one of %s)", s, strings.Join(ColorNames(), ", "))
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Template returns a commented config file with every default spelled out.
func Template() string {
	d := DefaultConfig()
	return fmt.Sprintf(`# morsecast configuration
# Uncomment a value to change it. CLI flags override config values.

# wpm = %d                    # Transmission speed, words per minute (%d-%d)

[audio]
# frequency = %.1f            # Tone frequency in Hz
# sample_rate = %d           # Samples per second
# fade_ms = %d                 # Fade in/out at each tone edge
# volume_db = %.1f            # Tone level relative to full scale
# placeholder_ms = %d         # Silence used when no character is encodable
# codec = %q               # Audio codec passed to ffmpeg

[video]
# fps = %d                    # Frames per second
# width = %d
# height = %d
# on_color = %q          # Colour while a tone sounds
# off_color = %q         # Colour during gaps
# codec = %q           # Video codec passed to ffmpeg

[output]
# dir = %q             # Where artifacts are written
# container = %q           # File extension / container
# temp_dir = ""               # Parent of temporary render directories (OS default if empty)

[ffmpeg]
# binary = %q           # ffmpeg executable
# timeout_seconds = 0         # 0 means no limit
`,
		d.WPM, timing.MinWPM, timing.MaxWPM,
		d.Audio.Frequency, d.Audio.SampleRate, d.Audio.FadeMs, d.Audio.VolumeDB, d.Audio.PlaceholderMs, d.Audio.Codec,
		d.Video.FPS, d.Video.Width, d.Video.Height, d.Video.OnColor, d.Video.OffColor, d.Video.Codec,
		d.Output.Dir, d.Output.Container,
		d.FFmpeg.Binary,
	)
}
