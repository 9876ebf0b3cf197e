package artifact

import (
	"context"
	"io"
)

// Progress receives byte counts while data is streamed.
type Progress interface {
	SetProgressTotal(total int64)
	Tick(n int64)
}

type noProgress struct{}

func (noProgress) SetProgressTotal(int64) {}
func (noProgress) Tick(int64)             {}

// progressReader ticks progress for every read and stops once ctx is done.
type progressReader struct {
	ctx      context.Context
	r        io.Reader
	progress Progress
	n        int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	if n > 0 {
		p.n += int64(n)
		p.progress.Tick(int64(n))
	}
	return n, err
}

// writeTracker records write failures so they can be told apart from read
// failures during io.Copy.
type writeTracker struct {
	w   io.Writer
	err error
}

func (w *writeTracker) Write(b []byte) (int, error) {
	n, err := w.w.Write(b)
	if err != nil {
		w.err = err
	}
	return n, err
}
