package morse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/atotto/clipboard"
	"github.com/gigurra/morsecast/cmd/common"
	"github.com/gigurra/morsecast/cmd/common/config"
	"github.com/gigurra/morsecast/cmd/common/symbols"
	"github.com/gigurra/morsecast/cmd/common/timeline"
	"github.com/gigurra/morsecast/cmd/common/timing"
	"github.com/spf13/cobra"
)

var clipboardWriteAll = clipboard.WriteAll

type Params struct {
	Text   []string `pos:"true" optional:"true" help:"Text to encode/decode. If none provided, reads from stdin."`
	Decode bool     `short:"d" help:"Decode morse code to text." default:"false"`
	Beep   bool     `short:"b" help:"Play the encoded text as audio (requires CGO on Linux)." default:"false"`
	WPM    int      `short:"w" name:"wpm" optional:"true" help:"Words per minute for audio playback (default from config)." default:"10"`
	Copy   bool     `name:"copy" help:"Copy the output to the clipboard." default:"false"`
}

// player plays text at the given timing. Swapped out in tests.
type player func(stdout io.Writer, tl timeline.Timeline, cfg config.Config) error

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "morse",
		Short:       "Encode/decode Morse code",
		Long:        longHelp(),
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
			if err := Run(params, cfg, os.Stdin, os.Stdout, play); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func longHelp() string {
	return "Convert text to Morse code or decode Morse code back to text. Use -b for audio beeps.\n\n" +
		"Supported characters: " + strings.TrimSpace(string(symbols.Supported())) + " and space." +
		" Anything else is skipped."
}

func Run(params *Params, cfg config.Config, stdin io.Reader, stdout io.Writer, p player) error {
	if params.Beep && !params.Decode {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	var lines []string
	if len(params.Text) > 0 {
		lines = []string{strings.Join(params.Text, " ")}
	} else {
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	}

	var out []string
	for _, line := range lines {
		if params.Decode {
			decoded := symbols.Decode(line)
			fmt.Fprintln(stdout, decoded)
			out = append(out, decoded)
			continue
		}
		encoded := symbols.Encode(line)
		fmt.Fprintln(stdout, encoded)
		out = append(out, encoded)
		if params.Beep {
			tl := timeline.Sequence(line, timing.Derive(cfg.WPM))
			if err := p(stdout, tl, cfg); err != nil {
				return fmt.Errorf("playback failed: %w", err)
			}
		}
	}

	if params.Copy {
		if err := clipboardWriteAll(strings.Join(out, "\n")); err != nil {
			return fmt.Errorf("failed to write to clipboard: %w", err)
		}
	}
	return nil
}
