package rtsp

import (
	"testing"

	"github.com/nmoreau/camlink/media"
)

func TestClassifyUnit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		unit   media.Unit
		want   Format
		wantOK bool
	}{
		{"h264 key frame", media.KeyFrame{Codec: media.H264, Data: []byte{1}}, Format{Kind: VideoH264}, true},
		{"h265 key frame", media.KeyFrame{Codec: media.H265, Data: []byte{1}}, Format{Kind: VideoH265}, true},
		{"h264 delta frame", media.DeltaFrame{Codec: media.H264, Data: []byte{1}}, Format{Kind: VideoH264}, true},
		{"h265 delta frame", media.DeltaFrame{Codec: media.H265, Data: []byte{1}}, Format{Kind: VideoH265}, true},
		{"aac", media.AudioAAC{Data: make([]byte, 12)}, Format{Kind: AudioAAC}, true},
		{"adpcm 160", media.AudioADPCM{Data: make([]byte, 160)}, Format{Kind: AudioADPCM, BlockAlign: 160}, true},
		{"adpcm 320", media.AudioADPCM{Data: make([]byte, 320)}, Format{Kind: AudioADPCM, BlockAlign: 320}, true},
		{"info", media.Info{Width: 896, Height: 512}, Format{}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ClassifyUnit(tt.unit)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("format: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatEquality(t *testing.T) {
	t.Parallel()

	if (Format{Kind: AudioADPCM, BlockAlign: 160}) == (Format{Kind: AudioADPCM, BlockAlign: 320}) {
		t.Error("ADPCM formats with different block sizes must not be equal")
	}
	if (Format{Kind: AudioAAC}) != (Format{Kind: AudioAAC}) {
		t.Error("identical AAC formats must be equal")
	}
	if (Format{}).Known() {
		t.Error("zero format must not be known")
	}
	if !(Format{Kind: VideoH265}).IsVideo() {
		t.Error("h265 must classify as video")
	}
	if !(Format{Kind: AudioADPCM, BlockAlign: 160}).IsAudio() {
		t.Error("adpcm must classify as audio")
	}
}
