// Package httpio implements the http:// and https:// ioendpoint source
// backend over valyala/fasthttp, retrying transient connection failures
// with cenkalti/backoff/v4 instead of a hand-rolled retry loop.
package httpio

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/valyala/fasthttp"

	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/payload"
)

// Endpoint is an HTTP GET source: the whole body is fetched on Open and
// served out of an in-memory cursor, matching the "read the resource
// then stream it through ports" contract the other read-only backends
// share (fasthttp's client is not itself a streaming reader once the
// response leaves the connection pool).
type Endpoint struct {
	url    string
	client *fasthttp.Client
	backoff func() backoff.BackOff

	body []byte
	pos  int
}

// New returns an unopened HTTP endpoint for url, retrying the initial GET
// per newBackOff's policy (nil uses a default exponential backoff capped
// at 3 retries, so 4 attempts in all, and 10 seconds).
func New(url string, newBackOff func() backoff.BackOff) *Endpoint {
	if newBackOff == nil {
		newBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 10 * time.Second
			return backoff.WithMaxRetries(b, 3)
		}
	}
	return &Endpoint{url: url, client: &fasthttp.Client{}, backoff: newBackOff}
}

func (e *Endpoint) Open() error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI(e.url)

	op := func() error {
		if err := e.client.Do(req, resp); err != nil {
			return err
		}
		if resp.StatusCode() >= 500 {
			return gmferr.New("httpio.Open", gmferr.IoError, "server error", nil)
		}
		return nil
	}
	if err := backoff.Retry(op, e.backoff()); err != nil {
		return gmferr.New("httpio.Open", gmferr.IoError, "GET "+e.url, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return gmferr.New("httpio.Open", gmferr.NotFound, "GET "+e.url, nil)
	}
	e.body = append([]byte(nil), resp.Body()...)
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
		base = int64(len(e.body))
	}
	np := base + offset
	if np < 0 || np > int64(len(e.body)) {
		return 0, gmferr.New("httpio.Seek", gmferr.InvalidArgument, "out of range", nil)
	}
	e.pos = int(np)
	return np, nil
}

func (e *Endpoint) AcquireRead(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	if e.pos >= len(e.body) {
		return payload.New(nil, 0, true), ioendpoint.StatusDone, nil
	}
	end := e.pos + wanted
	if end > len(e.body) {
		end = len(e.body)
	}
	n := end - e.pos
	buf := make([]byte, n)
	copy(buf, e.body[e.pos:end])
	e.pos = end
	done := e.pos >= len(e.body)
	return payload.New(buf, n, done), ioendpoint.StatusOK, nil
}

func (e *Endpoint) ReleaseRead(p *payload.Payload) error {
	if p != nil {
		p.Release()
	}
	return nil
}

func (e *Endpoint) AcquireWrite(wanted int, timeout time.Duration) (*payload.Payload, ioendpoint.Status, error) {
	return nil, ioendpoint.StatusFail, gmferr.New("httpio.AcquireWrite", gmferr.NotSupported, "http source is read-only", nil)
}

func (e *Endpoint) ReleaseWrite(p *payload.Payload, done bool) error {
	return gmferr.New("httpio.ReleaseWrite", gmferr.NotSupported, "http source is read-only", nil)
}

func (e *Endpoint) Size() int64 { return int64(len(e.body)) }

func (e *Endpoint) Close() error {
	e.body = nil
	return nil
}
