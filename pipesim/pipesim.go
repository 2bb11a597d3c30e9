// Package pipesim is an in-process stand-in for the media pipeline
// executor. It keeps the executor contract the router depends on
// (factories carrying launch descriptions, named element recovery on
// every reinstantiation, latest-delivery-wins handles) while replacing
// element execution with bounded in-memory injection points drained
// into RTP packetizers. It backs the demo binary and the integration
// tests; it performs no network transport.
package pipesim

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"

	"github.com/nmoreau/camlink/rtsp"
)

// srcMaxBytes mirrors the injection points' 50 MiB byte cap: Push
// blocks when the queue is full.
const srcMaxBytes = 52428800

const packetMTU = 1200

// PacketWriter receives the RTP packets produced by the simulated
// payload stages. A write error stops the producing pump.
type PacketWriter interface {
	WritePacket(pkt *rtp.Packet) error
}

// Executor implements rtsp.Executor in-process.
type Executor struct {
	log *slog.Logger
	pw  PacketWriter

	mu      sync.Mutex
	mounts  map[string]*Factory
	creds   []rtsp.Credential
	tlsCert *tls.Certificate
	tlsMode rtsp.TLSAuthMode
	serving bool
}

// New creates a simulator writing produced packets to pw. A nil pw
// discards packets. If log is nil, slog.Default() is used.
func New(pw PacketWriter, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		log:    log.With("component", "pipesim"),
		pw:     pw,
		mounts: make(map[string]*Factory),
	}
}

// Init satisfies rtsp.Initializer. The simulator has no process-wide
// runtime to bring up, so it only honors the idempotent-call contract.
func (e *Executor) Init() error { return nil }

// NewFactory returns an unmounted factory.
func (e *Executor) NewFactory() rtsp.Factory {
	return &Factory{exec: e}
}

// Mount serves f under path. While serving, mounting instantiates the
// factory's pipeline immediately.
func (e *Executor) Mount(path string, f rtsp.Factory) {
	fac := f.(*Factory)
	e.mu.Lock()
	e.mounts[path] = fac
	serving := e.serving
	e.mu.Unlock()

	e.log.Debug("mounted", "path", path)
	if serving {
		fac.ensureInstance()
	}
}

// Unmount removes the path registration and tears the pipeline down
// once no path references its factory anymore.
func (e *Executor) Unmount(path string) {
	e.mu.Lock()
	fac, ok := e.mounts[path]
	if ok {
		delete(e.mounts, path)
	}
	still := false
	for _, other := range e.mounts {
		if other == fac {
			still = true
			break
		}
	}
	e.mu.Unlock()

	if ok && !still {
		fac.teardown()
		e.log.Debug("unmounted", "path", path)
	}
}

// SetCredentials records the credential table.
func (e *Executor) SetCredentials(creds []rtsp.Credential) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.creds = creds
	return nil
}

// SetTLS records the parsed server certificate and client-auth mode.
func (e *Executor) SetTLS(cert tls.Certificate, mode rtsp.TLSAuthMode) error {
	if len(cert.Certificate) == 0 {
		return errors.New("certificate chain is empty")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tlsCert = &cert
	e.tlsMode = mode
	return nil
}

// Serve instantiates every mounted factory and blocks until the context
// is cancelled, then tears all pipelines down.
func (e *Executor) Serve(ctx context.Context, addr string, port uint16) error {
	e.mu.Lock()
	if e.serving {
		e.mu.Unlock()
		return errors.New("already serving")
	}
	e.serving = true
	facs := e.uniqueFactoriesLocked()
	e.mu.Unlock()

	for _, fac := range facs {
		fac.ensureInstance()
	}
	e.log.Info("serving", "addr", addr, "port", port)

	<-ctx.Done()

	e.mu.Lock()
	e.serving = false
	facs = e.uniqueFactoriesLocked()
	e.mu.Unlock()
	for _, fac := range facs {
		fac.teardown()
	}
	e.log.Info("stopped")
	return nil
}

func (e *Executor) uniqueFactoriesLocked() []*Factory {
	seen := make(map[*Factory]bool, len(e.mounts))
	facs := make([]*Factory, 0, len(e.mounts))
	for _, fac := range e.mounts {
		if !seen[fac] {
			seen[fac] = true
			facs = append(facs, fac)
		}
	}
	return facs
}

// Factory is one serving pipeline description and its instantiation
// state.
type Factory struct {
	exec *Executor

	mu        sync.Mutex
	launch    string
	shared    bool
	roles     []rtsp.AccessRule
	configure func(rtsp.ElementFinder)
	inst      *instance
}

// SetLaunch stores the description. On a live factory a replacement
// reinstantiates the pipeline immediately, the way a real executor
// rebuilds media after a description change.
func (f *Factory) SetLaunch(desc string) {
	f.mu.Lock()
	f.launch = desc
	live := f.inst != nil
	f.mu.Unlock()
	if live {
		f.instantiate()
	}
}

// SetShared records the shared flag.
func (f *Factory) SetShared(shared bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shared = shared
}

// AddRole records an access rule.
func (f *Factory) AddRole(rule rtsp.AccessRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles = append(f.roles, rule)
}

// Roles returns the declared rules, for inspection.
func (f *Factory) Roles() []rtsp.AccessRule {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rtsp.AccessRule(nil), f.roles...)
}

// OnMediaConfigure registers the handle-recovery callback.
func (f *Factory) OnMediaConfigure(fn func(rtsp.ElementFinder)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configure = fn
}

func (f *Factory) ensureInstance() {
	f.mu.Lock()
	live := f.inst != nil
	f.mu.Unlock()
	if !live {
		f.instantiate()
	}
}

// instantiate builds a fresh pipeline instance from the current launch
// description, makes it current (latest delivery wins), tears down the
// replaced one and fires the media-configure callback.
func (f *Factory) instantiate() {
	f.mu.Lock()
	launch := f.launch
	cb := f.configure
	f.mu.Unlock()

	inst := f.exec.newInstance(launch)

	f.mu.Lock()
	old := f.inst
	f.inst = inst
	f.mu.Unlock()

	if old != nil {
		old.teardown()
	}
	if cb != nil {
		cb(inst)
	}
}

func (f *Factory) teardown() {
	f.mu.Lock()
	inst := f.inst
	f.inst = nil
	f.mu.Unlock()
	if inst != nil {
		inst.teardown()
	}
}

// instance is one instantiated pipeline: the named elements plus the
// pumps draining the injection points.
type instance struct {
	elements map[string]any
	srcs     []*appSrcElem
	wg       sync.WaitGroup
}

// ByName implements rtsp.ElementFinder.
func (i *instance) ByName(name string) (any, bool) {
	el, ok := i.elements[name]
	return el, ok
}

func (i *instance) teardown() {
	for _, s := range i.srcs {
		s.close()
	}
	i.wg.Wait()
}

func (e *Executor) newInstance(launch string) *instance {
	vid := newAppSrcElem(rtsp.VideoSrcName, srcMaxBytes)
	aud := newAppSrcElem(rtsp.AudioSrcName, srcMaxBytes)
	sel := &inputSelectElem{pads: 4}

	inst := &instance{
		elements: map[string]any{
			rtsp.VideoSrcName: vid,
			rtsp.AudioSrcName: aud,
			rtsp.SelectorName: sel,
		},
		srcs: []*appSrcElem{vid, aud},
	}

	vidPay, vidPT, vidStep := videoPayStage(launch)
	audPay, audPT, audStep := audioPayStage(launch)

	inst.wg.Add(2)
	go e.pump(inst, vid, vidPay, vidPT, vidStep)
	go e.pump(inst, aud, audPay, audPT, audStep)
	return inst
}

// videoPayStage picks the payloader matching the launch description's
// pay0 terminal. A fakesink terminal discards.
func videoPayStage(launch string) (rtp.Payloader, uint8, uint32) {
	switch {
	case strings.Contains(launch, "rtph264pay"):
		return &codecs.H264Payloader{}, 96, 3600 // 90kHz / 25fps
	case strings.Contains(launch, "rtph265pay"):
		// Simulated as opaque chunks; good enough to exercise the
		// terminal without a codec-aware payloader.
		return &codecs.G711Payloader{}, 96, 3600
	default:
		return nil, 0, 0
	}
}

func audioPayStage(launch string) (rtp.Payloader, uint8, uint32) {
	if strings.Contains(launch, "rtpL16pay") {
		return &codecs.G711Payloader{}, 97, 320
	}
	return nil, 0, 0
}

// pump drains one injection point into RTP packets. A nil payloader
// models a discard stage: buffers are consumed and dropped so the
// bounded queue never wedges the producer.
func (e *Executor) pump(inst *instance, src *appSrcElem, payloader rtp.Payloader, pt uint8, tsStep uint32) {
	defer inst.wg.Done()

	seq := rtp.NewRandomSequencer()
	ssrc := rand.Uint32()
	var ts uint32

	for {
		data, ok := src.pop()
		if !ok {
			return
		}
		ts += tsStep
		if payloader == nil || e.pw == nil {
			continue
		}
		payloads := payloader.Payload(packetMTU, data)
		for n, payload := range payloads {
			pkt := &rtp.Packet{
				Header: rtp.Header{
					Version:        2,
					Marker:         n == len(payloads)-1,
					PayloadType:    pt,
					SequenceNumber: seq.NextSequenceNumber(),
					Timestamp:      ts,
					SSRC:           ssrc,
				},
				Payload: payload,
			}
			if err := e.pw.WritePacket(pkt); err != nil {
				e.log.Debug("packet writer error", "element", src.name, "error", err)
				return
			}
		}
	}
}

// appSrcElem is a byte-bounded injection point. Push blocks while the
// queue is full and fails once the instance is torn down.
type appSrcElem struct {
	name string

	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	bytes  int
	max    int
	closed bool
}

func newAppSrcElem(name string, maxBytes int) *appSrcElem {
	a := &appSrcElem{name: name, max: maxBytes}
	a.cond = sync.NewCond(&a.mu)
	return a
}

// Push implements rtsp.AppSrc.
func (a *appSrcElem) Push(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for !a.closed && a.bytes > 0 && a.bytes+len(data) > a.max {
		a.cond.Wait()
	}
	if a.closed {
		return fmt.Errorf("%s: pipeline flushing", a.name)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	a.queue = append(a.queue, buf)
	a.bytes += len(buf)
	a.cond.Broadcast()
	return nil
}

func (a *appSrcElem) pop() ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for len(a.queue) == 0 && !a.closed {
		a.cond.Wait()
	}
	if len(a.queue) == 0 {
		return nil, false
	}
	data := a.queue[0]
	a.queue = a.queue[1:]
	a.bytes -= len(data)
	a.cond.Broadcast()
	return data, true
}

func (a *appSrcElem) close() {
	a.mu.Lock()
	a.closed = true
	a.cond.Broadcast()
	a.mu.Unlock()
}

// inputSelectElem records the active branch of the simulated selector.
type inputSelectElem struct {
	mu     sync.Mutex
	pads   int
	active int
}

// SelectInput implements rtsp.InputSelect.
func (s *inputSelectElem) SelectInput(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= s.pads {
		return fmt.Errorf("no sink pad %d", index)
	}
	s.active = index
	return nil
}

// Active returns the currently selected branch, for inspection.
func (s *inputSelectElem) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
