package transport

import (
	"context"
	"io"
	"sync"
)

// Pipe streams whatever encode writes into a request body without buffering
// it. Close stops a pending encoder.
type Pipe struct {
	r         *io.PipeReader
	ctx       context.Context
	ctxCancel func()
	encodeErr error
	mu        sync.RWMutex
	done      chan struct{}
}

func NewPipe(encode func(io.Writer) error) *Pipe {

	ctx, ctxCancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()

	p := &Pipe{
		r:         pr,
		ctx:       ctx,
		ctxCancel: ctxCancel,
		done:      make(chan struct{}),
	}

	encoded := make(chan struct{})
	go func() {
		defer close(encoded)
		defer pw.Close()

		err := encode(pw)
		if err == io.ErrClosedPipe && ctx.Err() != nil {
			// the reader went away first
			err = io.EOF
		}

		p.mu.Lock()
		p.encodeErr = err
		p.mu.Unlock()
	}()

	go func() {
		defer close(p.done)
		defer p.ctxCancel()

		select {
		case <-ctx.Done():
			_ = pw.Close()
			<-encoded
		case <-encoded:
		}
	}()

	return p
}

func (p *Pipe) Read(out []byte) (n int, err error) {

	if encodeErr := p.err(); encodeErr != nil {
		return 0, encodeErr
	}

	n, err = p.r.Read(out)
	if err == nil || err == io.EOF {
		if encodeErr := p.err(); encodeErr != nil {
			err = encodeErr
		}
	}

	return
}

func (p *Pipe) Close() error {
	p.ctxCancel()
	<-p.done

	err := p.err()
	if err == io.EOF {
		return nil
	}

	return err
}

func (p *Pipe) err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.encodeErr
}
