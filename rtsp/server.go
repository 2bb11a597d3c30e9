package rtsp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nmoreau/camlink/certs"
)

// Server binds the stream router to a pipeline executor: it registers
// one shared factory per stream, wires live-handle recovery, and passes
// credentials, TLS and the serve loop through to the executor.
type Server struct {
	log  *slog.Logger
	exec Executor

	mu     sync.Mutex
	mounts map[string]*Stream // by path
}

// Stream is one registered stream: the sink the decoder feeds and the
// paths it is mounted under. Each stream owns an independent
// sink/selector/format-state triple; nothing is shared across streams.
type Stream struct {
	ID      string
	Paths   []string
	Outputs *Outputs

	factory Factory
}

// NewServer wraps the executor. If the executor needs one-time global
// runtime initialization it happens here, before any factory exists.
// If log is nil, slog.Default() is used.
func NewServer(exec Executor, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	if init, ok := exec.(Initializer); ok {
		if err := init.Init(); err != nil {
			return nil, fmt.Errorf("initialize pipeline executor: %w", err)
		}
	}
	return &Server{
		log:    log.With("component", "rtsp-server"),
		exec:   exec,
		mounts: make(map[string]*Stream),
	}, nil
}

// AddStream registers one shared serving pipeline under every given
// path and returns the stream whose Outputs the decoder should feed.
// The access rules for permittedRoles are declared per path and fixed
// for the life of the registration.
func (s *Server) AddStream(paths []string, permittedRoles []string) (*Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths given")
	}
	for _, p := range paths {
		if _, ok := s.mounts[p]; ok {
			return nil, fmt.Errorf("path %s already registered", p)
		}
	}

	id := uuid.NewString()
	log := s.log.With("stream", id)

	vidsrc := NewAppSrcCell("video")
	audsrc := NewAppSrcCell("audio")
	selector := NewSelectorCell()

	factory := s.exec.NewFactory()
	factory.SetShared(true)
	for _, p := range paths {
		for _, rule := range DeclareAccess(p, permittedRoles) {
			factory.AddRole(rule)
		}
	}
	log.Debug("permitting roles",
		"roles", strings.Join(permittedRoles, ", "),
		"paths", strings.Join(paths, ", "))

	// The executor fires this on every pipeline (re)instantiation; each
	// firing re-delivers fresh handles and the cells keep the latest.
	factory.OnMediaConfigure(func(find ElementFinder) {
		log.Debug("pipeline configured, recovering element handles")
		if src, ok := findAppSrc(find, VideoSrcName); ok {
			vidsrc.Set(src)
		} else {
			log.Warn("element missing from pipeline", "name", VideoSrcName)
		}
		if src, ok := findAppSrc(find, AudioSrcName); ok {
			audsrc.Set(src)
		} else {
			log.Warn("element missing from pipeline", "name", AudioSrcName)
		}
		if el, ok := find.ByName(SelectorName); ok {
			if sel, ok := el.(InputSelect); ok {
				selector.Set(sel)
			} else {
				log.Warn("element is not an input selector", "name", SelectorName)
			}
		} else {
			log.Warn("element missing from pipeline", "name", SelectorName)
		}
	})

	outputs := NewOutputs(factory, vidsrc, audsrc, selector, log)

	st := &Stream{
		ID:      id,
		Paths:   slices.Clone(paths),
		Outputs: outputs,
		factory: factory,
	}
	for _, p := range paths {
		s.exec.Mount(p, factory)
		s.mounts[p] = st
	}
	log.Info("stream registered", "paths", strings.Join(paths, ", "))
	return st, nil
}

// RemoveStream unmounts every path of st and drops the registration.
// In-flight writes are abandoned, not drained.
func (s *Server) RemoveStream(st *Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range st.Paths {
		if cur, ok := s.mounts[p]; ok && cur == st {
			s.exec.Unmount(p)
			delete(s.mounts, p)
		}
	}
	s.log.Info("stream removed", "stream", st.ID)
}

// SetCredentials installs the username/password table. Each username
// maps 1:1 to a role token of the same name.
func (s *Server) SetCredentials(creds []Credential) error {
	for _, c := range creds {
		s.log.Debug("adding credentials", "user", c.User)
	}
	return s.exec.SetCredentials(creds)
}

// SetTLS loads a combined certificate+key PEM file and hands it to the
// executor together with the client-authentication mode. Errors here
// are setup-time fatal for the caller: serving must not start
// half-configured.
func (s *Server) SetTLS(certFile string, mode TLSAuthMode) error {
	s.log.Debug("setting up TLS", "cert", certFile)
	cert, err := certs.LoadPEM(certFile)
	if err != nil {
		return fmt.Errorf("load TLS certificate: %w", err)
	}
	return s.exec.SetTLS(cert, mode)
}

// Run binds the executor to addr:port and drives its event loop until
// the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string, port uint16) error {
	s.log.Info("serving", "addr", addr, "port", port)
	return s.exec.Serve(ctx, addr, port)
}

func findAppSrc(find ElementFinder, name string) (AppSrc, bool) {
	el, ok := find.ByName(name)
	if !ok {
		return nil, false
	}
	src, ok := el.(AppSrc)
	return src, ok
}
