package mux

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gigurra/morsecast/cmd/common/audio"
	"github.com/gigurra/morsecast/cmd/common/timeline"
	"github.com/gigurra/morsecast/cmd/common/timing"
	"github.com/gigurra/morsecast/cmd/common/visual"
)

func planFor(text string, wpm, fps int) Plan {
	tl := timeline.Sequence(text, timing.Derive(wpm))
	a := audio.Build(tl, audio.DefaultOptions())
	v := visual.Build(tl, fps)
	return Synchronize(a, v, tl.TotalMs())
}

func TestSynchronize_VideoLongerThanTimeline(t *testing.T) {
	plan := planFor("SOS", 10, 30)
	if plan.Natural != 103*time.Second/30 {
		t.Fatalf("Natural = %v", plan.Natural)
	}
	if plan.Final != plan.Natural || plan.Hold != 0 {
		t.Errorf("Final = %v, Hold = %v; want natural duration and no hold", plan.Final, plan.Hold)
	}
	if plan.Final < 3240*time.Millisecond {
		t.Errorf("video shorter than timeline")
	}
	if plan.Audio.Len() != int(int64(plan.Final)*audio.DefaultSampleRate/int64(time.Second)) {
		t.Errorf("audio not conformed to final duration: %d samples", plan.Audio.Len())
	}
}

func TestSynchronize_StretchesShortVideo(t *testing.T) {
	// 11 wpm: a 109ms dot rounds down to 3 frames (100ms)
	plan := planFor("E", 11, 30)
	if plan.Natural != 100*time.Millisecond {
		t.Fatalf("Natural = %v, want 100ms", plan.Natural)
	}
	if plan.Final != 109*time.Millisecond {
		t.Errorf("Final = %v, want 109ms", plan.Final)
	}
	if plan.Hold != 9*time.Millisecond {
		t.Errorf("Hold = %v, want 9ms", plan.Hold)
	}
	if plan.Audio.DurationMs() != 109 {
		t.Errorf("audio duration %dms, want 109ms", plan.Audio.DurationMs())
	}

	segments := plan.Segments()
	if len(segments) != 1 || segments[0].Frame != visual.On {
		t.Fatalf("unexpected segments %+v", segments)
	}
	if segments[0].Duration != 109*time.Millisecond {
		t.Errorf("last segment = %v, want 109ms", segments[0].Duration)
	}
}

func TestSynchronize_EmptyTimeline(t *testing.T) {
	plan := planFor("", 10, 30)
	if plan.Video.Len() != 1 {
		t.Fatalf("expected single placeholder frame")
	}
	if plan.Final != time.Second/30 {
		t.Errorf("Final = %v, want one frame", plan.Final)
	}
	if plan.Audio.Len() == 0 {
		t.Errorf("audio must not be empty")
	}
}

func TestWriteConcat(t *testing.T) {
	var buf bytes.Buffer
	segments := []Segment{
		{Frame: visual.On, Duration: 100 * time.Millisecond},
		{Frame: visual.Off, Duration: 1500 * time.Millisecond},
	}
	if err := WriteConcat(&buf, segments); err != nil {
		t.Fatal(err)
	}
	expected := "ffconcat version 1.0\n" +
		"file 'on.png'\nduration 0.100000\n" +
		"file 'off.png'\nduration 1.500000\n" +
		"file 'off.png'\n"
	if buf.String() != expected {
		t.Errorf("WriteConcat =\n%s\nwant\n%s", buf.String(), expected)
	}
}

type fakeEncoder struct {
	job     Job
	files   []string
	fail    error
	content string
}

func (f *fakeEncoder) Encode(_ context.Context, job Job) error {
	f.job = job
	entries, _ := os.ReadDir(filepath.Dir(job.Frames))
	for _, e := range entries {
		f.files = append(f.files, e.Name())
	}
	if f.fail != nil {
		_ = os.WriteFile(job.Output, []byte("half"), 0644)
		return f.fail
	}
	return os.WriteFile(job.Output, []byte(f.content), 0644)
}

func TestMux_Success(t *testing.T) {
	outDir := t.TempDir()
	tmpDir := t.TempDir()
	output := filepath.Join(outDir, "SOS.mp4")
	enc := &fakeEncoder{content: "video"}
	opts := DefaultOptions()
	opts.TempDir = tmpDir

	plan := planFor("SOS", 10, 30)
	if err := Mux(context.Background(), enc, plan, output, opts); err != nil {
		t.Fatalf("Mux failed: %v", err)
	}

	for _, name := range []string{"audio.wav", "frames.ffconcat", "on.png", "off.png"} {
		if !slices.Contains(enc.files, name) {
			t.Errorf("encoder did not see %s in workspace: %v", name, enc.files)
		}
	}
	if enc.job.FPS != 30 || enc.job.Duration != plan.Final {
		t.Errorf("unexpected job %+v", enc.job)
	}
	if enc.job.VideoCodec != "libx264" || enc.job.AudioCodec != "aac" {
		t.Errorf("unexpected codecs %+v", enc.job)
	}
	if filepath.Dir(enc.job.Output) != outDir || filepath.Ext(enc.job.Output) != ".mp4" {
		t.Errorf("partial output %s should sit beside the artifact", enc.job.Output)
	}

	data, err := os.ReadFile(output)
	if err != nil || string(data) != "video" {
		t.Errorf("artifact not in place: %q, %v", data, err)
	}
	assertOnlyFile(t, outDir, "SOS.mp4")
	assertEmptyDir(t, tmpDir)
}

func TestMux_FailureCleansUp(t *testing.T) {
	outDir := t.TempDir()
	tmpDir := t.TempDir()
	output := filepath.Join(outDir, "SOS.mp4")
	boom := errors.New("boom")
	enc := &fakeEncoder{fail: boom}
	opts := DefaultOptions()
	opts.TempDir = tmpDir

	err := Mux(context.Background(), enc, planFor("SOS", 10, 30), output, opts)
	if !errors.Is(err, boom) {
		t.Fatalf("Mux error = %v, want boom", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("artifact should not exist after failure")
	}
	assertEmptyDir(t, outDir)
	assertEmptyDir(t, tmpDir)
}

func TestMux_OutputInCurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	opts := DefaultOptions()
	opts.TempDir = t.TempDir()
	if err := Mux(context.Background(), &fakeEncoder{content: "x"}, planFor("E", 10, 30), "E.mp4", opts); err != nil {
		t.Fatalf("Mux failed: %v", err)
	}
	assertOnlyFile(t, dir, "E.mp4")
}

func TestFFmpeg_Args(t *testing.T) {
	job := Job{
		Frames:     "/tmp/w/frames.ffconcat",
		Audio:      "/tmp/w/audio.wav",
		Output:     "out.mp4",
		FPS:        30,
		Duration:   3240 * time.Millisecond,
		VideoCodec: "libx264",
		AudioCodec: "aac",
	}
	args := strings.Join(FFmpeg{}.Args(job), " ")
	for _, want := range []string{
		"-f concat -safe 0 -i /tmp/w/frames.ffconcat",
		"-i /tmp/w/audio.wav",
		"-c:v libx264",
		"-r 30",
		"-c:a aac",
		"-t 3.240000 out.mp4",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestFFmpeg_MissingBinary(t *testing.T) {
	enc := FFmpeg{Binary: "definitely-not-an-ffmpeg-binary"}
	err := enc.Encode(context.Background(), Job{})
	if !errors.Is(err, ErrEncoderUnavailable) {
		t.Errorf("Encode error = %v, want ErrEncoderUnavailable", err)
	}
}

func TestWorkspace_CloseRemovesEverything(t *testing.T) {
	parent := t.TempDir()
	ws, err := NewWorkspace(parent, "test")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(filepath.Base(ws.Dir), "test-") {
		t.Errorf("unexpected workspace name %s", ws.Dir)
	}
	if _, err := ws.WriteFile("a.txt", func(f *os.File) error {
		_, err := f.WriteString("a")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if err := ws.Close(); err != nil {
		t.Fatal(err)
	}
	assertEmptyDir(t, parent)
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("%s should be empty, has %v", dir, names)
	}
}

func assertOnlyFile(t *testing.T, dir, name string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != name {
		t.Errorf("%s should only contain %s, has %v", dir, name, entries)
	}
}
