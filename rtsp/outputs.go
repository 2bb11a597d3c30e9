package rtsp

import (
	"bytes"
	"errors"
	"log/slog"

	"github.com/nmoreau/camlink/media"
)

// InputSource selects which video-producing branch is live on the
// served output.
type InputSource int

const (
	SourceCamera InputSource = iota
	SourceTestPattern
	SourceFreeze
	SourceBlack
)

func (s InputSource) String() string {
	switch s {
	case SourceCamera:
		return "camera"
	case SourceTestPattern:
		return "test-pattern"
	case SourceFreeze:
		return "freeze"
	case SourceBlack:
		return "black"
	default:
		return "unknown"
	}
}

// branchIndex maps a source to its selector pad. The indices are fixed
// by the sink_N pad names in the launch description.
func (s InputSource) branchIndex() int {
	switch s {
	case SourceTestPattern:
		return 1
	case SourceFreeze:
		return 2
	case SourceBlack:
		return 3
	default:
		return 0
	}
}

// Liveness is the external oracle deciding whether a stream should keep
// flowing. It is consulted only at key-frame boundaries so that a stop
// never leaves a half-decoded picture on screen.
type Liveness interface {
	ShouldStream() bool
}

// Outputs is the unit-consuming endpoint of one registered stream. It
// classifies incoming units, rebuilds the launch description when a
// format slot changes, forwards payload bytes to the injection points,
// and keeps the most recent key frame for freeze-frame fallback.
//
// Outputs is driven synchronously by the single producer goroutine the
// decoder runs per camera stream; it is not safe for concurrent use.
type Outputs struct {
	log      *slog.Logger
	factory  Factory
	vidsrc   *AppSrcCell
	audsrc   *AppSrcCell
	selector *SelectorCell

	videoFormat Format
	audioFormat Format

	lastKeyFrame []byte
	liveness     Liveness
}

// NewOutputs builds the sink for a factory and its handle cells, and
// installs the initial (formatless) launch description so the pipeline
// is valid before the first unit arrives.
func NewOutputs(factory Factory, vidsrc, audsrc *AppSrcCell, selector *SelectorCell, log *slog.Logger) *Outputs {
	if log == nil {
		log = slog.Default()
	}
	o := &Outputs{
		log:      log,
		factory:  factory,
		vidsrc:   vidsrc,
		audsrc:   audsrc,
		selector: selector,
	}
	o.applyLaunch()
	return o
}

// SetLiveness installs the continue/stop oracle. A nil oracle means
// stream forever.
func (o *Outputs) SetLiveness(l Liveness) {
	o.liveness = l
}

// SetInput switches the served output to the given video branch.
// Returns ErrNotReady until the executor has delivered the selector
// handle.
func (o *Outputs) SetInput(src InputSource) error {
	return o.selector.SetInput(src.branchIndex())
}

// Receive routes one decoded unit. It returns whether the caller should
// keep pumping units; a false return is only ever produced at a
// key-frame boundary. A non-nil error means the ingestion session is
// over for this stream.
func (o *Outputs) Receive(u media.Unit) (keepStreaming bool, err error) {
	keep := true

	// The served output follows the camera while units are flowing;
	// fallback branches are selected externally once they stop. The
	// switch is idempotent and the selector may not exist yet.
	if err := o.SetInput(SourceCamera); err != nil {
		if errors.Is(err, ErrNotReady) {
			o.log.Debug("input selector not ready yet")
		} else {
			o.log.Warn("cannot switch input to camera", "error", err)
		}
	}

	if f, ok := ClassifyUnit(u); ok {
		o.setFormat(f)
	}

	switch u := u.(type) {
	case media.KeyFrame:
		if err := o.vidsrc.Write(u.Data); err != nil {
			return false, err
		}
		// Copy, not alias: the decoder may reuse the unit's buffer, and
		// the retained frame must replay exactly as received.
		o.lastKeyFrame = bytes.Clone(u.Data)
		// Only decide continue/stop on key frames so the last displayed
		// picture is always a complete one.
		if o.liveness != nil {
			keep = o.liveness.ShouldStream()
		}
	case media.DeltaFrame:
		if err := o.vidsrc.Write(u.Data); err != nil {
			return false, err
		}
	case media.AudioAAC:
		if err := o.audsrc.Write(u.Data); err != nil {
			return false, err
		}
	case media.AudioADPCM:
		if err := o.audsrc.Write(u.Data); err != nil {
			return false, err
		}
	default:
		// Informational units carry nothing to route.
	}

	return keep, nil
}

// HasLastKeyFrame reports whether a key frame has been retained.
func (o *Outputs) HasLastKeyFrame() bool {
	return o.lastKeyFrame != nil
}

// ReplayLastKeyFrame re-injects the most recent key frame, e.g. to give
// the freeze branch a picture on first activation. Returns
// ErrNoKeyFrame if none was seen yet.
func (o *Outputs) ReplayLastKeyFrame() error {
	if o.lastKeyFrame == nil {
		return ErrNoKeyFrame
	}
	return o.vidsrc.Write(o.lastKeyFrame)
}

// setFormat updates the slot for f's media class and reinstalls the
// launch description iff the slot actually changed. Rebuilding per unit
// instead of per change would force renegotiation storms.
func (o *Outputs) setFormat(f Format) {
	switch {
	case f.IsVideo():
		if f != o.videoFormat {
			o.videoFormat = f
			o.applyLaunch()
		}
	case f.IsAudio():
		if f != o.audioFormat {
			o.audioFormat = f
			o.applyLaunch()
		}
	}
}

func (o *Outputs) applyLaunch() {
	desc := BuildLaunch(o.videoFormat, o.audioFormat)
	o.log.Debug("installing launch description",
		"video", o.videoFormat.Kind, "audio", o.audioFormat.Kind, "launch", desc)
	o.factory.SetLaunch(desc)
}
