package video

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/morsecast/cmd/common"
	"github.com/gigurra/morsecast/cmd/common/config"
	"github.com/gigurra/morsecast/cmd/common/generate"
	"github.com/spf13/cobra"
)

type Params struct {
	Text      []string `pos:"true" optional:"true" help:"Text to render. If none provided, reads from stdin."`
	WPM       int      `short:"w" name:"wpm" optional:"true" help:"Words per minute (default from config)." default:"10"`
	Output    string   `short:"o" name:"output" optional:"true" help:"Output file (default: <output dir>/<text>.<container>)."`
	FPS       int      `name:"fps" optional:"true" help:"Video frames per second (default from config)." default:"30"`
	Frequency float64  `name:"frequency" optional:"true" help:"Tone frequency in Hz (default from config)." default:"700"`
	Verbose   bool     `short:"v" name:"verbose" help:"Log progress to stderr." default:"false"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "video",
		Short: "Render text as a Morse code video",
		Long: `Render text as Morse code into a video file with a synchronized tone track.

The screen is lit while a tone sounds and dark during gaps. The path of the
written file is printed on success. Requires ffmpeg.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			cfg, err := config.Load(config.ConfigPath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			ApplyFlags(&cfg, params, cmd.Flags().Changed)

			gen := generate.New(cfg)
			gen.Logger = common.NewLogger(os.Stderr, params.Verbose)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := Run(ctx, gen, params, os.Stdin, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

// ApplyFlags copies explicitly set flags over the loaded configuration.
func ApplyFlags(cfg *config.Config, params *Params, changed func(name string) bool) {
	if changed("wpm") {
		cfg.WPM = params.WPM
	}
	if changed("fps") {
		cfg.Video.FPS = params.FPS
	}
	if changed("frequency") {
		cfg.Audio.Frequency = params.Frequency
	}
}

func Run(ctx context.Context, gen *generate.Generator, params *Params, stdin io.Reader, stdout io.Writer) error {
	text, err := common.ReadText(params.Text, stdin)
	if err != nil {
		return err
	}

	if params.Output == "" {
		res, err := gen.Generate(ctx, text, gen.Config.WPM)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, res.Path)
		return nil
	}

	plan, err := gen.Prepare(text, gen.Config.WPM)
	if err != nil {
		return err
	}
	if err := gen.Render(ctx, plan, params.Output); err != nil {
		return err
	}
	fmt.Fprintln(stdout, params.Output)
	return nil
}
