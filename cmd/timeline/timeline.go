package timeline

import (
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/charmbracelet/lipgloss"
	"github.com/gigurra/morsecast/cmd/common"
	"github.com/gigurra/morsecast/cmd/common/config"
	"github.com/gigurra/morsecast/cmd/common/generate"
	"github.com/gigurra/morsecast/cmd/common/visual"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	defaultTerminalWidth = 80
	toneCell             = "█"
	gapCell              = "·"
)

// Gaps keep the terminal's own colour so they show on any background.
var gapStyle = lipgloss.NewStyle().Faint(true)

type Params struct {
	Text  []string `pos:"true" optional:"true" help:"Text to sequence. If none provided, reads from stdin."`
	WPM   int      `short:"w" name:"wpm" optional:"true" help:"Words per minute (default from config)." default:"10"`
	FPS   int      `name:"fps" optional:"true" help:"Frames per second used for frame counts (default from config)." default:"30"`
	Strip bool     `short:"s" name:"strip" help:"Also draw the on/off pattern, one cell per unit." default:"false"`
	Quiet bool     `short:"q" name:"quiet" help:"Only print the summary." default:"false"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "timeline",
		Short:       "Show the timed Morse events for text",
		Long:        "Sequence text into dots, dashes and gaps and show each event with its start, duration and frame count.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			cfg, err := config.Load(config.ConfigPath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if cmd.Flags().Changed("wpm") {
				cfg.WPM = params.WPM
			}
			if cmd.Flags().Changed("fps") {
				cfg.Video.FPS = params.FPS
			}
			if err := Run(cfg, params, terminalWidth(), os.Stdin, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTerminalWidth
	}
	return width
}

func Run(cfg config.Config, params *Params, width int, stdin io.Reader, stdout io.Writer) error {
	text, err := common.ReadText(params.Text, stdin)
	if err != nil {
		return err
	}

	gen := generate.New(cfg)
	gen.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	plan, err := gen.Prepare(text, cfg.WPM)
	if err != nil {
		return err
	}

	if !params.Quiet {
		renderTable(stdout, plan)
	}
	renderSummary(stdout, plan)

	if params.Strip {
		on, _ := config.ParseColor(cfg.Video.OnColor)
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, Strip(plan, width, on))
	}
	return nil
}

func renderTable(w io.Writer, plan generate.Plan) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Kind", "Start (ms)", "Duration (ms)", "Frames"})

	offsets := plan.Timeline.Offsets()
	for i, e := range plan.Timeline.Events() {
		t.AppendRow(table.Row{i + 1, e.Kind, offsets[i], e.DurationMs, visual.FrameCount(e.DurationMs, plan.Video.FPS)})
	}
	t.AppendFooter(table.Row{"", "Total", "", plan.Timeline.TotalMs(), plan.Video.Len()})
	t.Render()
}

func renderSummary(w io.Writer, plan generate.Plan) {
	stats := plan.Timeline.Stats()
	fmt.Fprintf(w, "Text:     %q\n", plan.Text)
	fmt.Fprintf(w, "Speed:    %d wpm (unit %v)\n", plan.Timing.WPM, plan.Timing.Unit())
	fmt.Fprintf(w, "Events:   %d (%d dots, %d dashes, %d gaps)\n", plan.Timeline.Len(), stats.Dots, stats.Dashes, stats.Gaps)
	fmt.Fprintf(w, "Sound:    %dms tone, %dms silence, %dms total\n", stats.ToneMs, stats.SilenceMs, plan.TotalMs)
	fmt.Fprintf(w, "Video:    %d frames at %d fps, %v natural, %v final (hold %v)\n",
		plan.Video.Len(), plan.Video.FPS, plan.Natural, plan.Final, plan.Hold)
}

// Strip draws one cell per timing unit, tones in the on colour and gaps dimmed,
// wrapped to width.
func Strip(plan generate.Plan, width int, on color.Color) string {
	unit := max(1, plan.Timing.UnitMs)
	var cells []bool
	for _, e := range plan.Timeline.Events() {
		n := max(1, e.DurationMs/unit)
		for range n {
			cells = append(cells, e.IsTone())
		}
	}
	if len(cells) == 0 {
		return ""
	}

	toneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(hex(on)))

	rows := lo.Map(lo.Chunk(cells, max(1, width)), func(row []bool, _ int) string {
		var b strings.Builder
		for i := 0; i < len(row); {
			j := i
			for j < len(row) && row[j] == row[i] {
				j++
			}
			if row[i] {
				b.WriteString(toneStyle.Render(strings.Repeat(toneCell, j-i)))
			} else {
				b.WriteString(gapStyle.Render(strings.Repeat(gapCell, j-i)))
			}
			i = j
		}
		return b.String()
	})
	return strings.Join(rows, "\n")
}

func hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
