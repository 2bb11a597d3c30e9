package rtsp

import (
	"fmt"
	"strings"
)

// Element names wired into the launch description. The media-configure
// callback recovers live handles by these names, and the executor's
// transport layer attaches to the pay0/pay1 terminals. Renaming any of
// them breaks handle recovery.
const (
	VideoSrcName = "vidsrc"
	AudioSrcName = "audsrc"
	SelectorName = "vid_inputselect"
	VideoPayName = "pay0"
	AudioPayName = "pay1"

	videoTeeName = "vid_src_tee"
)

// srcMaxBytes caps each injection point's internal queue. The appsrc
// blocks the producer when full, so a slow or absent consumer throttles
// the camera feed instead of growing memory without bound.
const srcMaxBytes = 52428800 // 50 MiB

const (
	queueStage = "queue silent=true max-size-bytes=10485760 min-threshold-bytes=1024"

	// Fixed profile the synthetic branches re-encode to.
	testVideoCapsH264 = "video/x-h264,width=896,height=512,framerate=25/1"
	testVideoCapsH265 = "video/x-h265,width=896,height=512,framerate=25/1"
)

// BuildLaunch renders the complete serving-pipeline description for the
// given format slots. It is a pure function: the sink calls it once per
// format change, never per unit, because installing a new description
// forces a full pipeline renegotiation.
//
// The video side is an input-selector fed by four branches at fixed pad
// indices: 0 camera, 1 test pattern, 2 freeze frame (teed off the
// camera branch and held on the last decoded picture), 3 black. Until
// the first video unit establishes a codec the camera bytes are sunk
// into a fakesink so the pipeline stays valid. The audio side is a
// single injection point parsed and decoded per the audio format.
func BuildLaunch(video, audio Format) string {
	appSrc := func(name string) string {
		return fmt.Sprintf(
			"appsrc name=%s is-live=true block=true emit-signals=false max-bytes=%d do-timestamp=true format=GST_FORMAT_TIME",
			name, srcMaxBytes)
	}

	var parts []string
	parts = append(parts, "(")

	if !video.Known() {
		// No codec yet: keep the selector and both injection points
		// alive but route everything to discard stages.
		parts = append(parts,
			"(", "input-selector name="+SelectorName, "! fakesink", ")",
			"(", appSrc(VideoSrcName), "! fakesink", ")",
		)
	} else {
		var parse, enc, caps, freezeDec string
		switch video.Kind {
		case VideoH265:
			parse = "h265parse"
			enc = "x265enc"
			caps = testVideoCapsH265
			freezeDec = "decodebin"
		default:
			parse = "h264parse"
			enc = "x264enc"
			caps = testVideoCapsH264
			freezeDec = "avdec_h264"
		}
		reencode := fmt.Sprintf("%s ! %s ! %s", enc, caps, parse)

		parts = append(parts,
			// Selector merging the four branches into the video terminal.
			"(",
			"input-selector name="+SelectorName,
			fmt.Sprintf("! rtp%spay name=%s", video.Kind, VideoPayName),
			")",
			// Branch 0: live camera bytes, teed so the freeze branch can
			// reuse them without re-routing the selector input.
			"(",
			appSrc(VideoSrcName),
			"! "+queueStage+" ! "+parse,
			"! tee name="+videoTeeName,
			"(",
			videoTeeName+". ! "+queueStage+" ! "+SelectorName+".sink_0",
			")",
			")",
			// Branch 1: synthetic test pattern re-encoded to the camera codec.
			"(",
			"videotestsrc ! "+queueStage+" ! "+reencode,
			"! "+SelectorName+".sink_1",
			")",
			// Branch 2: last decoded camera picture, frozen.
			"(",
			videoTeeName+". ! "+queueStage+" !",
			freezeDec+" ! imagefreeze allow-replace=true is-live=true ! "+reencode,
			"! "+SelectorName+".sink_2",
			")",
			// Branch 3: black filler.
			"(",
			"videotestsrc pattern=black ! "+queueStage+" ! "+reencode,
			"! "+SelectorName+".sink_3",
			")",
		)
	}

	parts = append(parts, appSrc(AudioSrcName), audioStage(audio), ")")
	return strings.Join(parts, " ")
}

// audioStage renders the downstream stages of the audio injection
// point. ADPCM needs its caps declared up front because block size,
// layout and rate are not discoverable from the byte stream.
func audioStage(audio Format) string {
	switch audio.Kind {
	case AudioADPCM:
		return fmt.Sprintf(
			"caps=audio/x-adpcm,layout=dvi,block_align=%d,channels=1,rate=8000 ! %s ! adpcmdec ! audioconvert ! rtpL16pay name=%s",
			audio.BlockAlign, queueStage, AudioPayName)
	case AudioAAC:
		return fmt.Sprintf(
			"! %s ! aacparse ! decodebin ! audioconvert ! rtpL16pay name=%s",
			queueStage, AudioPayName)
	default:
		return "! fakesink"
	}
}
