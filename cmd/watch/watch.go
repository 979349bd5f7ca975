package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/fsnotify/fsnotify"
	"github.com/gigurra/morsecast/cmd/common"
	"github.com/gigurra/morsecast/cmd/common/config"
	"github.com/gigurra/morsecast/cmd/common/generate"
	"github.com/spf13/cobra"
)

const debounceDelay = 100 * time.Millisecond

type Params struct {
	File    string `pos:"true" help:"Text file to render and watch."`
	WPM     int    `short:"w" name:"wpm" optional:"true" help:"Words per minute (default from config)." default:"10"`
	Output  string `short:"o" name:"output" optional:"true" help:"Output file (default: <output dir>/<text>.<container>)."`
	Verbose bool   `short:"v" name:"verbose" help:"Log progress to stderr." default:"false"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "watch",
		Short: "Re-render a text file whenever it changes",
		Long: `Render the contents of a text file as a Morse code video, then render it
again every time the file is saved. Renders run one at a time.`,
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

			gen := generate.New(cfg)
			gen.Logger = common.NewLogger(os.Stderr, params.Verbose)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := Run(ctx, gen, params, os.Stdout, os.Stderr); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

// Run renders params.File once and again after every change until ctx is done.
// Render errors are reported and watching continues.
func Run(ctx context.Context, gen *generate.Generator, params *Params, stdout, stderr io.Writer) error {
	path, err := filepath.Abs(params.File)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", params.File, err)
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	render := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read %s: %v\n", path, err)
			return
		}
		out, err := renderOnce(ctx, gen, string(data), params.Output)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(stdout, out)
	}

	changeChan := make(chan struct{}, 1)

	var debounceTimer *time.Timer
	var debounceMutex sync.Mutex
	triggerChange := func() {
		debounceMutex.Lock()
		defer debounceMutex.Unlock()

		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(debounceDelay, func() {
			select {
			case changeChan <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		debounceMutex.Lock()
		defer debounceMutex.Unlock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	render()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				triggerChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "watch error: %v\n", err)

		case <-changeChan:
			render()
		}
	}
}

func renderOnce(ctx context.Context, gen *generate.Generator, text, output string) (string, error) {
	text = strings.TrimRight(text, "\r\n")
	if output == "" {
		res, err := gen.Generate(ctx, text, gen.Config.WPM)
		return res.Path, err
	}
	plan, err := gen.Prepare(text, gen.Config.WPM)
	if err != nil {
		return "", err
	}
	return output, gen.Render(ctx, plan, output)
}
