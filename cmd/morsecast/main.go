package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	configcmd "github.com/gigurra/morsecast/cmd/config"
	"github.com/gigurra/morsecast/cmd/morse"
	"github.com/gigurra/morsecast/cmd/timeline"
	"github.com/gigurra/morsecast/cmd/video"
	"github.com/gigurra/morsecast/cmd/watch"
	"github.com/spf13/cobra"
)

// Command group IDs
const (
	groupEncoding = "encoding"
	groupMedia    = "media"
	groupSetup    = "setup"
)

// withGroup sets the GroupID on a command and returns it
func withGroup(cmd *cobra.Command, group string) *cobra.Command {
	cmd.GroupID = group
	return cmd
}

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "morsecast",
		Short:   "Morse code as sound and light",
		Long:    "Turn text into Morse code: encode and decode it, listen to it, or render it as a video with a synchronized tone.",
		Version: appVersion(),
		Groups: []*cobra.Group{
			{ID: groupEncoding, Title: "Encoding:"},
			{ID: groupMedia, Title: "Media:"},
			{ID: groupSetup, Title: "Setup:"},
		},
		SubCmds: []*cobra.Command{
			withGroup(morse.Cmd(), groupEncoding),
			withGroup(timeline.Cmd(), groupEncoding),

			withGroup(video.Cmd(), groupMedia),
			withGroup(watch.Cmd(), groupMedia),

			withGroup(configcmd.Cmd(), groupSetup),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
