package rtsp

import (
	"context"
	"crypto/tls"
)

// TLSAuthMode selects how the executor's transport authenticates
// connecting clients.
type TLSAuthMode int

const (
	TLSAuthNone TLSAuthMode = iota
	TLSAuthRequested
	TLSAuthRequired
)

// Credential is one username/password pair. The username doubles as
// the role token evaluated against declared access rules; connections
// that present no credentials carry the implicit "anonymous" role.
type Credential struct {
	User string
	Pass string
}

// ElementFinder looks up live elements of an instantiated pipeline by
// the names assigned in the launch description. The returned value is
// type-asserted to AppSrc or InputSelect by the caller.
type ElementFinder interface {
	ByName(name string) (any, bool)
}

// Factory describes one serving pipeline shared by every path it is
// mounted under: the launch description, the per-role access rules, and
// the callback used to recover live element handles.
type Factory interface {
	// SetLaunch installs or replaces the pipeline description. A
	// replacement takes effect on the next pipeline (re)instantiation.
	SetLaunch(desc string)

	// SetShared makes every client of every mounted path share one
	// pipeline instance instead of constructing their own.
	SetShared(shared bool)

	// AddRole attaches an access rule; rules are fixed for the life of
	// the factory once it is mounted.
	AddRole(rule AccessRule)

	// OnMediaConfigure registers fn to run each time the executor
	// instantiates the pipeline. The executor may retry construction, so
	// fn can fire more than once; every firing presents the freshly
	// created elements and supersedes earlier deliveries.
	OnMediaConfigure(fn func(ElementFinder))
}

// Executor is the opaque media-pipeline engine: it parses launch
// descriptions, instantiates and runs elements, and owns all network
// transport. The router only ever talks to it through this interface.
type Executor interface {
	NewFactory() Factory

	// Mount serves the factory's pipeline under path. One factory may be
	// mounted under several paths.
	Mount(path string, f Factory)

	// Unmount removes a path registration. In-flight element work is
	// abandoned, not drained.
	Unmount(path string)

	SetCredentials(creds []Credential) error
	SetTLS(cert tls.Certificate, mode TLSAuthMode) error

	// Serve binds addr:port and drives the executor's event loop until
	// the context is cancelled.
	Serve(ctx context.Context, addr string, port uint16) error
}

// Initializer is implemented by executors that need one-time
// process-wide runtime initialization before any factory is created.
// Init must be idempotent.
type Initializer interface {
	Init() error
}
