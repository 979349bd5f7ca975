package config

import (
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("Load of missing file = %+v, want defaults", cfg)
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
wpm = 20

[video]
fps = 25
on_color = "#ff0"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WPM != 20 {
		t.Errorf("WPM = %d, want 20", cfg.WPM)
	}
	if cfg.Video.FPS != 25 {
		t.Errorf("Video.FPS = %d, want 25", cfg.Video.FPS)
	}
	if cfg.Video.OnColor != "#ff0" {
		t.Errorf("Video.OnColor = %q, want #ff0", cfg.Video.OnColor)
	}
	// untouched keys keep their defaults
	if cfg.Video.Width != 320 || cfg.Audio.Frequency != 700 || cfg.Output.Dir != "Outputs" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("wpm = = 3"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestWriteLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.WPM = 33
	cfg.FFmpeg.TimeoutSeconds = 60

	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("Load after Write = %+v, want %+v", got, cfg)
	}
}

func TestConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	want := filepath.Join(dir, "morsecast", "config.toml")
	if got := ConfigPath(); got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		substr string
	}{
		{"wpm zero", func(c *Config) { c.WPM = 0 }, "wpm"},
		{"wpm too high", func(c *Config) { c.WPM = 101 }, "wpm"},
		{"frequency", func(c *Config) { c.Audio.Frequency = 0 }, "audio.frequency"},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = -1 }, "audio.sample_rate"},
		{"placeholder", func(c *Config) { c.Audio.PlaceholderMs = 0 }, "audio.placeholder_ms"},
		{"fps", func(c *Config) { c.Video.FPS = 0 }, "video.fps"},
		{"size", func(c *Config) { c.Video.Width = 0 }, "video size"},
		{"odd width", func(c *Config) { c.Video.Width = 321 }, "must be even"},
		{"odd height", func(c *Config) { c.Video.Height = 239 }, "must be even"},
		{"color", func(c *Config) { c.Video.OffColor = "mauve-ish" }, "video.off_color"},
		{"container", func(c *Config) { c.Output.Container = "" }, "output.container"},
		{"timeout", func(c *Config) { c.FFmpeg.TimeoutSeconds = -5 }, "timeout_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not mention %q", err, tt.substr)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input string
		want  color.RGBA
	}{
		{"white", color.RGBA{255, 255, 255, 255}},
		{"Black", color.RGBA{0, 0, 0, 255}},
		{" red ", color.RGBA{255, 0, 0, 255}},
		{"#102030", color.RGBA{0x10, 0x20, 0x30, 255}},
		{"#ABCDEF", color.RGBA{0xab, 0xcd, 0xef, 255}},
		{"#f0a", color.RGBA{0xff, 0x00, 0xaa, 255}},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.input)
		if err != nil {
			t.Errorf("ParseColor(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, input := range []string{"", "#", "#12", "#12345", "#gggggg", "ffffff", "chartreuse"} {
		if _, err := ParseColor(input); err == nil {
			t.Errorf("ParseColor(%q) expected error", input)
		}
	}
}

func TestDerivedOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Video.Width = 64
	cfg.Video.Height = 48
	cfg.Video.OnColor = "#00ff00"
	cfg.Output.TempDir = "/tmp/x"
	cfg.FFmpeg.Binary = "/opt/ffmpeg"
	cfg.FFmpeg.TimeoutSeconds = 2

	a := cfg.AudioOptions()
	if a.SampleRate != 44100 || a.Frequency != 700 || a.FadeMs != 5 || a.PlaceholderMs != 10 {
		t.Errorf("AudioOptions() = %+v", a)
	}

	m, err := cfg.MuxOptions()
	if err != nil {
		t.Fatalf("MuxOptions: %v", err)
	}
	if m.Palette.Size.X != 64 || m.Palette.Size.Y != 48 {
		t.Errorf("palette size = %v, want 64x48", m.Palette.Size)
	}
	if m.Palette.On != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("palette on = %v", m.Palette.On)
	}
	if m.TempDir != "/tmp/x" || m.VideoCodec != "libx264" || m.AudioCodec != "aac" {
		t.Errorf("MuxOptions() = %+v", m)
	}

	enc := cfg.Encoder()
	if enc.Binary != "/opt/ffmpeg" || enc.Timeout != 2*time.Second {
		t.Errorf("Encoder() = %+v", enc)
	}
}

func TestTemplate_DecodesToDefaults(t *testing.T) {
	// every value in the template is commented out
	cfg := DefaultConfig()
	if _, err := toml.Decode(Template(), &cfg); err != nil {
		t.Fatalf("template does not decode: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("template changed defaults: %+v", cfg)
	}

	// and uncommenting it yields the defaults too
	var uncommented strings.Builder
	for _, line := range strings.Split(Template(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		uncommented.WriteString(line + "\n")
	}
	var got Config
	if _, err := toml.Decode(uncommented.String(), &got); err != nil {
		t.Fatalf("uncommented template does not decode: %v\n%s", err, uncommented.String())
	}
	if got != DefaultConfig() {
		t.Errorf("uncommented template = %+v, want %+v", got, DefaultConfig())
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, DefaultConfig()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, want := range []string{"wpm = 10", "[audio]", "[video]", "on_color = \"white\"", "[ffmpeg]"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}
