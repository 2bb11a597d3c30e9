// Package media defines the decoded media unit types produced by the
// camera-protocol decoder and consumed by the stream router.
package media

// VideoCodec identifies the compression format of a video unit.
type VideoCodec uint8

// Video codecs the upstream decoder can produce.
const (
	H264 VideoCodec = iota + 1
	H265
)

func (c VideoCodec) String() string {
	switch c {
	case H264:
		return "h264"
	case H265:
		return "h265"
	default:
		return "unknown"
	}
}

// Unit is one decoded media unit pushed by the upstream decoder. The
// decoder never replays a unit; ordering is the arrival order on the
// camera connection. Implementations are the closed set of variants
// below.
type Unit interface {
	unit()
}

// KeyFrame is a self-contained video picture, decodable without prior
// pictures. Payload is the raw encoded access unit.
type KeyFrame struct {
	Codec VideoCodec
	Data  []byte
}

// DeltaFrame is a video picture dependent on preceding frames; it
// cannot be decoded standalone.
type DeltaFrame struct {
	Codec VideoCodec
	Data  []byte
}

// AudioAAC is one AAC audio frame.
type AudioAAC struct {
	Data []byte
}

// AudioADPCM is one DVI-4 ADPCM audio block. The block size is implied
// by the payload length; the decoder frames exactly one block per unit.
type AudioADPCM struct {
	Data []byte
}

// Info carries decoder-side stream metadata. It has no payload to route
// and never affects router state.
type Info struct {
	Width     uint32
	Height    uint32
	FrameRate uint8
}

func (KeyFrame) unit()   {}
func (DeltaFrame) unit() {}
func (AudioAAC) unit()   {}
func (AudioADPCM) unit() {}
func (Info) unit()       {}
