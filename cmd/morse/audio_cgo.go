//go:build (linux && cgo) || windows || darwin

package morse

import (
	"io"
	"time"

	"github.com/gigurra/morsecast/cmd/common/audio"
	"github.com/gigurra/morsecast/cmd/common/config"
	"github.com/gigurra/morsecast/cmd/common/timeline"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

var speakerInitialized = false

func play(_ io.Writer, tl timeline.Timeline, cfg config.Config) error {
	track := audio.Build(tl, cfg.AudioOptions())

	if !speakerInitialized {
		rate := track.Format().SampleRate
		if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
			return err
		}
		speakerInitialized = true
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(track.Streamer(), beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}
