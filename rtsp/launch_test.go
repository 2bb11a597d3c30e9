package rtsp

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildLaunchH264(t *testing.T) {
	t.Parallel()
	desc := BuildLaunch(Format{Kind: VideoH264}, Format{Kind: AudioAAC})

	for _, want := range []string{
		"appsrc name=" + VideoSrcName,
		"appsrc name=" + AudioSrcName,
		"input-selector name=" + SelectorName,
		"rtph264pay name=" + VideoPayName,
		"rtpL16pay name=" + AudioPayName,
		"tee name=" + videoTeeName,
		"h264parse",
		"imagefreeze allow-replace=true is-live=true",
		"aacparse",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("launch missing %q:\n%s", want, desc)
		}
	}

	// All four selector branches must be connected.
	for i := 0; i < 4; i++ {
		pad := fmt.Sprintf("%s.sink_%d", SelectorName, i)
		if !strings.Contains(desc, pad) {
			t.Errorf("launch missing selector pad %s", pad)
		}
	}
}

func TestBuildLaunchH265(t *testing.T) {
	t.Parallel()
	desc := BuildLaunch(Format{Kind: VideoH265}, Format{})

	for _, want := range []string{
		"rtph265pay name=" + VideoPayName,
		"h265parse",
		"x265enc",
		"decodebin ! imagefreeze",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("launch missing %q:\n%s", want, desc)
		}
	}
	if strings.Contains(desc, "h264") {
		t.Error("h265 launch must not reference h264 stages")
	}
}

func TestBuildLaunchUnknownFormats(t *testing.T) {
	t.Parallel()
	desc := BuildLaunch(Format{}, Format{})

	// The pipeline must stay valid before any format is known: both
	// injection points and the selector exist, everything discards.
	for _, want := range []string{
		"appsrc name=" + VideoSrcName,
		"appsrc name=" + AudioSrcName,
		"input-selector name=" + SelectorName,
		"fakesink",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("launch missing %q:\n%s", want, desc)
		}
	}
	if strings.Contains(desc, VideoPayName) || strings.Contains(desc, AudioPayName) {
		t.Errorf("formatless launch must not declare payload terminals:\n%s", desc)
	}
}

func TestBuildLaunchADPCM(t *testing.T) {
	t.Parallel()
	desc := BuildLaunch(Format{Kind: VideoH264}, Format{Kind: AudioADPCM, BlockAlign: 320})

	for _, want := range []string{
		"caps=audio/x-adpcm,layout=dvi,block_align=320,channels=1,rate=8000",
		"adpcmdec",
		"rtpL16pay name=" + AudioPayName,
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("launch missing %q:\n%s", want, desc)
		}
	}
}

func TestBuildLaunchDeterministic(t *testing.T) {
	t.Parallel()
	a := BuildLaunch(Format{Kind: VideoH265}, Format{Kind: AudioADPCM, BlockAlign: 160})
	b := BuildLaunch(Format{Kind: VideoH265}, Format{Kind: AudioADPCM, BlockAlign: 160})
	if a != b {
		t.Error("BuildLaunch must be deterministic for equal inputs")
	}
}
