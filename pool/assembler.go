package pool

import (
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/jangala-dev/gmf/element"
	"github.com/jangala-dev/gmf/gmferr"
	"github.com/jangala-dev/gmf/ioendpoint"
	"github.com/jangala-dev/gmf/pipeline"
	"github.com/jangala-dev/gmf/port"
)

// ElementSpec names one element instance to build: Type selects the
// registered factory, Tag is the instance's own name, Config is passed
// through to the factory untouched.
type ElementSpec struct {
	Type   string
	Tag    string
	Config any
}

// IOSpec names one I/O endpoint instance plus the port capabilities the
// assembler should expose where it joins the element chain.
type IOSpec struct {
	Type   string
	Tag    string
	Config any
	Caps   port.Caps
}

// NewPipeline builds reader -> elems[0] -> ... -> elems[n-1] -> writer,
// linking each adjacent pair's "out"/"in" ports, per spec.md §4.6's
// `new_pipeline(pool, reader_name, [element_names], writer_name)`. A
// factory failure partway through unwinds already-built instances in
// reverse via a bounded errgroup, matching spec.md §4.6's "OutOfMemory
// during assembly is unwound with a reverse teardown of already-created
// instances".
//
// Multi-output elements (e.g. a tee) are not addressable through this
// linear chain; build and link those by hand with port.Link and assemble
// the surrounding pipeline with pipeline.New directly.
func (p *Pool) NewPipeline(tag string, reader IOSpec, elems []ElementSpec, writer IOSpec, opts port.LinkOptions) (*pipeline.Pipeline, error) {
	var closers []func() error
	// teardown unwinds already-built instances in reverse, one at a time
	// through an errgroup limited to one goroutine; every Close error is
	// kept (multierr), not
	// just the first, since an assembly failure already has one error of
	// its own and silently dropping the rest would hide which instance
	// also failed to release its resources.
	teardown := func() error {
		g := new(errgroup.Group)
		g.SetLimit(1)
		var mu sync.Mutex
		var closeErr error
		for i := len(closers) - 1; i >= 0; i-- {
			fn := closers[i]
			g.Go(func() error {
				if err := fn(); err != nil {
					mu.Lock()
					closeErr = multierr.Append(closeErr, err)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
		return closeErr
	}

	readerEp, err := p.NewIO(reader.Type, reader.Tag, reader.Config)
	if err != nil {
		return nil, err
	}
	closers = append(closers, readerEp.Close)
	src := ioendpoint.NewSource(reader.Tag, readerEp, reader.Caps)

	chain := []element.Element{src}
	prevOut, ok := src.Port("out")
	if !ok {
		return nil, multierr.Append(
			gmferr.New("pool.NewPipeline", gmferr.Fatal, "reader adapter has no out-port", nil), teardown())
	}

	for _, es := range elems {
		el, err := p.NewElement(es.Type, es.Tag, es.Config)
		if err != nil {
			return nil, multierr.Append(err, teardown())
		}
		closers = append(closers, el.Close)

		in, ok := el.Port("in")
		if !ok {
			return nil, multierr.Append(
				gmferr.New("pool.NewPipeline", gmferr.InvalidArgument, "element "+es.Tag+" has no in-port", nil), teardown())
		}
		if err := port.Link(prevOut, in, opts); err != nil {
			return nil, multierr.Append(err, teardown())
		}
		chain = append(chain, el)

		if out, ok := el.Port("out"); ok {
			prevOut = out
		}
	}

	writerEp, err := p.NewIO(writer.Type, writer.Tag, writer.Config)
	if err != nil {
		return nil, multierr.Append(err, teardown())
	}
	closers = append(closers, writerEp.Close)
	sink := ioendpoint.NewSink(writer.Tag, writerEp, writer.Caps)

	in, ok := sink.Port("in")
	if !ok {
		return nil, multierr.Append(
			gmferr.New("pool.NewPipeline", gmferr.Fatal, "writer adapter has no in-port", nil), teardown())
	}
	if err := port.Link(prevOut, in, opts); err != nil {
		return nil, multierr.Append(err, teardown())
	}
	chain = append(chain, sink)

	return pipeline.New(tag, chain, readerEp, writerEp), nil
}
