package rtsp

import "github.com/nmoreau/camlink/media"

// FormatKind enumerates the encodings a stream slot can hold.
type FormatKind uint8

const (
	FormatUnknown FormatKind = iota
	VideoH264
	VideoH265
	AudioAAC
	AudioADPCM
)

func (k FormatKind) String() string {
	switch k {
	case VideoH264:
		return "h264"
	case VideoH265:
		return "h265"
	case AudioAAC:
		return "aac"
	case AudioADPCM:
		return "adpcm"
	default:
		return "unknown"
	}
}

// Format tags the encoding of one media class on the stream. Two
// formats are equal iff their kind and, for ADPCM, block alignment
// match, so plain == comparison decides whether a pipeline rebuild is
// due. The zero value means the format is not yet known.
type Format struct {
	Kind FormatKind

	// BlockAlign is the ADPCM block size in bytes. It is embedded in the
	// pipeline caps, so a new block size is a new format. Zero for every
	// other kind.
	BlockAlign uint16
}

// Known reports whether the format has been established.
func (f Format) Known() bool { return f.Kind != FormatUnknown }

// IsVideo reports whether the format belongs to the video slot.
func (f Format) IsVideo() bool { return f.Kind == VideoH264 || f.Kind == VideoH265 }

// IsAudio reports whether the format belongs to the audio slot.
func (f Format) IsAudio() bool { return f.Kind == AudioAAC || f.Kind == AudioADPCM }

// ClassifyUnit derives the stream format of a media unit. ok is false
// for informational units, which never change the stream format. ADPCM
// block size is taken from the payload length; the upstream decoder
// frames one block per unit.
func ClassifyUnit(u media.Unit) (f Format, ok bool) {
	switch u := u.(type) {
	case media.KeyFrame:
		return videoFormat(u.Codec), true
	case media.DeltaFrame:
		return videoFormat(u.Codec), true
	case media.AudioAAC:
		return Format{Kind: AudioAAC}, true
	case media.AudioADPCM:
		return Format{Kind: AudioADPCM, BlockAlign: uint16(len(u.Data))}, true
	default:
		return Format{}, false
	}
}

func videoFormat(c media.VideoCodec) Format {
	if c == media.H265 {
		return Format{Kind: VideoH265}
	}
	return Format{Kind: VideoH264}
}
