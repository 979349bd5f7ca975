//go:build linux && !cgo

package morse

import (
	"fmt"
	"io"
	"time"

	"github.com/gigurra/morsecast/cmd/common/config"
	"github.com/gigurra/morsecast/cmd/common/timeline"
)

func play(stdout io.Writer, tl timeline.Timeline, _ config.Config) error {
	// Fallback: use terminal bell
	fmt.Fprintln(stdout, "(Audio requires CGO on Linux. Using terminal bell...)")

	for _, e := range tl.Events() {
		if e.IsTone() {
			fmt.Fprint(stdout, "\a")
		}
		time.Sleep(e.Duration())
	}
	return nil
}
