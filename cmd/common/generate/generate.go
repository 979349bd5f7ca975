// Package generate turns text into a finished Morse code audio+video artifact.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gigurra/morsecast/cmd/common/audio"
	"github.com/gigurra/morsecast/cmd/common/config"
	"github.com/gigurra/morsecast/cmd/common/mux"
	"github.com/gigurra/morsecast/cmd/common/timeline"
	"github.com/gigurra/morsecast/cmd/common/timing"
	"github.com/gigurra/morsecast/cmd/common/visual"
	"github.com/google/uuid"
)

var (
	// ErrInvalidConfiguration is returned before any work is done when the
	// request or the configuration cannot be rendered.
	ErrInvalidConfiguration = config.ErrInvalid

	// ErrRenderFailure wraps any failure while writing the artifact.
	ErrRenderFailure = errors.New("render failure")
)

const (
	fallbackName = "morse"
	// leaves room under the 255 byte file name limit for the partial file affixes
	maxNameBytes = 200
)

// AudioRenderer renders a timeline into an audio track.
type AudioRenderer interface {
	RenderAudio(tl timeline.Timeline) audio.Track
}

// VideoRenderer renders a timeline into a visual track.
type VideoRenderer interface {
	RenderVideo(tl timeline.Timeline) visual.Track
}

// Generator runs generate requests against one configuration.
// Zero-valued collaborators are derived from Config.
type Generator struct {
	Config  config.Config
	Encoder mux.Encoder
	Logger  *slog.Logger
	Audio   AudioRenderer
	Video   VideoRenderer
}

func New(cfg config.Config) *Generator {
	return &Generator{
		Config:  cfg,
		Encoder: cfg.Encoder(),
		Logger:  slog.Default(),
	}
}

// Plan is a fully computed request, ready to be rendered.
type Plan struct {
	ID       string
	Text     string
	Timing   timing.Params
	Timeline timeline.Timeline
	mux.Plan
}

// Result of a Generate call. Plan is set even when rendering failed.
type Result struct {
	Path string
	Plan Plan
}

// Prepare sequences text at wpm and builds synchronized tracks. Nothing is
// sequenced when wpm or the configuration is invalid.
func (g *Generator) Prepare(text string, wpm int) (Plan, error) {
	if !timing.InRange(wpm) {
		return Plan{}, fmt.Errorf("%w: wpm must be between %d and %d, got %d",
			ErrInvalidConfiguration, timing.MinWPM, timing.MaxWPM, wpm)
	}
	cfg := g.Config
	cfg.WPM = wpm
	if err := cfg.Validate(); err != nil {
		return Plan{}, err
	}

	id := uuid.NewString()
	log := g.logger().With("request", id)

	params := timing.Derive(wpm)
	tl := timeline.Sequence(text, params)
	log.Debug("sequenced", "wpm", wpm, "unit_ms", params.UnitMs, "events", tl.Len(), "total_ms", tl.TotalMs())

	a := g.audioRenderer().RenderAudio(tl)
	v := g.videoRenderer().RenderVideo(tl)
	log.Debug("rendered tracks", "samples", a.Len(), "frames", v.Len(), "fps", v.FPS)

	synced := mux.Synchronize(a, v, tl.TotalMs())
	log.Debug("synchronized", "natural", synced.Natural, "final", synced.Final, "hold", synced.Hold)

	return Plan{
		ID:       id,
		Text:     text,
		Timing:   params,
		Timeline: tl,
		Plan:     synced,
	}, nil
}

// Render encodes plan into output. The output directory is created if needed
// and output is left untouched when encoding fails.
func (g *Generator) Render(ctx context.Context, plan Plan, output string) error {
	opts, err := g.Config.MuxOptions()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if plan.ID != "" {
		opts.Prefix = opts.Prefix + "-" + plan.ID
	}

	log := g.logger().With("request", plan.ID)

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("%w: creating output directory: %w", ErrRenderFailure, err)
	}

	if err := mux.Mux(ctx, g.encoder(), plan.Plan, output, opts); err != nil {
		log.Error("render failed", "output", output, "error", err)
		return fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}

	log.Info("artifact written", "path", output, "duration", plan.Final)
	return nil
}

// Generate prepares and renders text at wpm into the configured output directory.
func (g *Generator) Generate(ctx context.Context, text string, wpm int) (Result, error) {
	plan, err := g.Prepare(text, wpm)
	if err != nil {
		return Result{}, err
	}
	path := OutputPath(g.Config.Output.Dir, text, g.Config.Output.Container)
	if err := g.Render(ctx, plan, path); err != nil {
		return Result{Plan: plan}, err
	}
	return Result{Path: path, Plan: plan}, nil
}

// OutputPath names the artifact for text: the text itself with path
// separators and control characters replaced, or "morse" when nothing is left.
func OutputPath(dir, text, container string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == filepath.Separator || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(text))

	if len(name) > maxNameBytes {
		cut := maxNameBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		name = fallbackName
	}

	ext := strings.TrimPrefix(container, ".")
	if ext == "" {
		ext = "mp4"
	}
	return filepath.Join(dir, name+"."+ext)
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (g *Generator) encoder() mux.Encoder {
	if g.Encoder == nil {
		return g.Config.Encoder()
	}
	return g.Encoder
}

func (g *Generator) audioRenderer() AudioRenderer {
	if g.Audio == nil {
		return audio.Builder{Options: g.Config.AudioOptions()}
	}
	return g.Audio
}

func (g *Generator) videoRenderer() VideoRenderer {
	if g.Video == nil {
		return visual.Builder{FPS: g.Config.Video.FPS}
	}
	return g.Video
}
