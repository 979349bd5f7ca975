package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/morsecast/cmd/common"
	"github.com/gigurra/morsecast/cmd/common/config"
	"github.com/spf13/cobra"
)

type Params struct {
	Init bool `name:"init" help:"Write a commented config file if none exists." default:"false"`
	Path bool `name:"path" help:"Print the config file path and exit." default:"false"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "config",
		Short: "Show or initialise the configuration",
		Long: `Print the effective configuration as TOML.

Values come from the config file, with defaults for anything it leaves out.
Use --init to write a commented starting file.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params, config.ConfigPath(), os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func Run(params *Params, path string, stdout io.Writer) error {
	if params.Path {
		fmt.Fprintln(stdout, path)
		return nil
	}

	if params.Init {
		return initFile(path, stdout)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := config.Write(stdout, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func initFile(path string, stdout io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(stdout, "Config already exists: %s\n", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(config.Template()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}
