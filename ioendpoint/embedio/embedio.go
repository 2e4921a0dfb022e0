// Package embedio implements the embed:// ioendpoint backend over a Go
// embed.FS table, looked up by name — the same address/size lookup shape
// as the teacher's services/config EmbeddedConfigLookup pattern, applied
// to arbitrary embedded media assets (e.g. a built-in alert tone) instead
// of JSON config blobs.
package embedio

import (
	"embed"
	"time"

	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/payload"
)

// Lookup resolves an embed:// host+path to a file within an embed.FS,
// mirroring the teacher's embeddedConfigs map of name -> []byte.
type Lookup struct {
	FS   embed.FS
	Name string
}

// Endpoint is a read-only source over an embedded file.
type Endpoint struct {
	lookup Lookup
	data   []byte
	pos    int
}

// New returns an unopened embed endpoint for the given lookup.
func New(lookup Lookup) *Endpoint {
	return &Endpoint{lookup: lookup}
}

func (e *Endpoint) Open() error {
	data, err := e.lookup.FS.ReadFile(e.lookup.Name)
	if err != nil {
		return gmferr.New("embedio.Open", gmferr.NotFound, "embed "+e.lookup.Name, err)
	}
	e.data = data
	return nil
}

func (e *Endpoint) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case 0:
		base = 0
	case 1:
		base = int64(e.pos)
	case 2:
		base = int64(len(e.data))
	}
	np := base + offset
	if np < 0 || np > int64(len(e.data)) {
		return 0, gmferr.New("embedio.Seek", gmferr.InvalidArgument, "out of range", nil)
	}
	e.pos = int(np)
	return np, nil
}

func (e *Endpoint) AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	if e.pos >= len(e.data) {
		return payload.New(nil, 0, true), ioendpoint.StatusDone, nil
	}
	end := e.pos + wanted
	if end > len(e.data) {
		end = len(e.data)
	}
	n := end - e.pos
	// The embedded bytes are immutable for the program's lifetime, so a
	// shared payload can alias them directly instead of copying.
	p := payload.NewShared(e.data[e.pos:end], n, end >= len(e.data))
	e.pos = end
	return p, ioendpoint.StatusOK, nil
}

func (e *Endpoint) ReleaseRead(p *payload.Payload) error {
	if p != nil {
		p.Release()
	}
	return nil
}

func (e *Endpoint) AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	return nil, ioendpoint.StatusFail, gmferr.New("embedio.AcquireWrite", gmferr.NotSupported, "embed source is read-only", nil)
}

func (e *Endpoint) ReleaseWrite(p *payload.Payload, done bool) error {
	return gmferr.New("embedio.ReleaseWrite", gmferr.NotSupported, "embed source is read-only", nil)
}

func (e *Endpoint) Size() int64 { return int64(len(e.data)) }

func (e *Endpoint) Close() error {
	e.data = nil
	return nil
}
