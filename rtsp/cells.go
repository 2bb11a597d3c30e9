package rtsp

import "sync/atomic"

// AppSrc is a live injection-point element recovered from an
// instantiated pipeline. Push hands one buffer of raw media bytes to
// the element; it may block while the element's queue is full.
type AppSrc interface {
	Push(data []byte) error
}

// InputSelect is the live source-selector element inside a running
// pipeline.
type InputSelect interface {
	SelectInput(index int) error
}

// AppSrcCell is a single-slot, latest-wins holder for an AppSrc handle.
// The executor delivers a handle once per pipeline instantiation and
// may deliver again on construction retries; writes always route to the
// most recent delivery. Writes before the first delivery are silently
// dropped so the producer can start pumping before the pipeline exists.
type AppSrcCell struct {
	kind string // "video" or "audio", named in write errors
	src  atomic.Pointer[appSrcBox]
}

type appSrcBox struct {
	src AppSrc
}

// NewAppSrcCell creates an empty cell for the given media class.
func NewAppSrcCell(kind string) *AppSrcCell {
	return &AppSrcCell{kind: kind}
}

// Set installs a freshly recovered handle, replacing any previous one.
func (c *AppSrcCell) Set(src AppSrc) {
	c.src.Store(&appSrcBox{src: src})
}

// Ready reports whether a live handle has been delivered.
func (c *AppSrcCell) Ready() bool {
	return c.src.Load() != nil
}

// Write pushes data to the current handle. A rejected push means the
// handle refers to a torn-down pipeline: the cell clears it (a retry
// will re-deliver) and returns a *WriteError, which ends the caller's
// ingestion session.
func (c *AppSrcCell) Write(data []byte) error {
	box := c.src.Load()
	if box == nil {
		return nil
	}
	if err := box.src.Push(data); err != nil {
		c.src.CompareAndSwap(box, nil)
		return &WriteError{Kind: c.kind, Err: err}
	}
	return nil
}

// SelectorCell is the latest-wins holder for the input-selector handle.
type SelectorCell struct {
	sel atomic.Pointer[inputSelectBox]
}

type inputSelectBox struct {
	sel InputSelect
}

// NewSelectorCell creates an empty selector cell.
func NewSelectorCell() *SelectorCell {
	return &SelectorCell{}
}

// Set installs a freshly recovered handle, replacing any previous one.
func (c *SelectorCell) Set(sel InputSelect) {
	c.sel.Store(&inputSelectBox{sel: sel})
}

// SetInput switches the live branch. Before the first delivery it
// returns ErrNotReady; callers retry on the next unit.
func (c *SelectorCell) SetInput(index int) error {
	box := c.sel.Load()
	if box == nil {
		return ErrNotReady
	}
	return box.sel.SelectInput(index)
}
