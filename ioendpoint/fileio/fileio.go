// Package fileio implements the file:// ioendpoint backend over os.File.
package fileio

import (
	"io"
	"os"
	"time"

	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/payload"
)

// Endpoint is a file-backed source or sink.
type Endpoint struct {
	path  string
	write bool
	perm  os.FileMode

	f    *os.File
	size int64
}

// New returns an unopened file endpoint for path. write selects
// O_RDONLY vs O_WRONLY|O_CREATE|O_TRUNC.
func New(path string, write bool) *Endpoint {
	return &Endpoint{path: path, write: write, perm: 0o644}
}

func (e *Endpoint) Open() error {
	var f *os.File
	var err error
	if e.write {
		f, err = os.OpenFile(e.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, e.perm)
	} else {
		f, err = os.Open(e.path)
	}
	if err != nil {
		return gmferr.New("fileio.Open", gmferr.IoError, "open "+e.path, err)
	}
	e.f = f
	if !e.write {
		if info, err := f.Stat(); err == nil {
			e.size = info.Size()
		}
	}
	return nil
}

func (e *Endpoint) Seek(offset int64, whence int) (int64, error) {
	if e.f == nil {
		return 0, gmferr.New("fileio.Seek", gmferr.InvalidArgument, "not open", nil)
	}
	n, err := e.f.Seek(offset, whence)
	if err != nil {
		return 0, gmferr.New("fileio.Seek", gmferr.IoError, "seek", err)
	}
	return n, nil
}

func (e *Endpoint) AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	if e.f == nil {
		return nil, ioendpoint.StatusFail, gmferr.New("fileio.AcquireRead", gmferr.InvalidArgument, "not open", nil)
	}
	if wanted == 0 {
		return payload.New(nil, 0, false), ioendpoint.StatusOK, nil
	}
	buf := make([]byte, wanted)
	n, err := e.f.Read(buf)
	if n > 0 {
		return payload.New(buf, n, false), ioendpoint.StatusOK, nil
	}
	if err == io.EOF || n == 0 {
		return payload.New(buf, 0, true), ioendpoint.StatusDone, nil
	}
	return nil, ioendpoint.StatusFail, gmferr.New("fileio.AcquireRead", gmferr.IoError, "read", err)
}

func (e *Endpoint) ReleaseRead(p *payload.Payload) error {
	if p != nil {
		p.Release()
	}
	return nil
}

func (e *Endpoint) AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	if e.f == nil {
		return nil, ioendpoint.StatusFail, gmferr.New("fileio.AcquireWrite", gmferr.InvalidArgument, "not open", nil)
	}
	return payload.New(make([]byte, wanted), 0, false), ioendpoint.StatusOK, nil
}

func (e *Endpoint) ReleaseWrite(p *payload.Payload, done bool) error {
	if p != nil && p.Valid > 0 {
		if _, err := e.f.Write(p.View()); err != nil {
			return gmferr.New("fileio.ReleaseWrite", gmferr.IoError, "write", err)
		}
	}
	return nil
}

func (e *Endpoint) Size() int64 { return e.size }

func (e *Endpoint) Close() error {
	if e.f == nil {
		return nil
	}
	err := e.f.Close()
	e.f = nil
	if err != nil {
		return gmferr.New("fileio.Close", gmferr.IoError, "close", err)
	}
	return nil
}
