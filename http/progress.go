package http

import (
	"io"
	"sync"
)

// progressReader reports the fraction of total bytes consumed from r.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	fn       ProgressFunc
	mu       sync.Mutex
	finished bool
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)

	p.mu.Lock()
	p.read += int64(n)
	var fraction float64
	report := false
	switch {
	case err == io.EOF && !p.finished:
		p.finished = true
		fraction, report = 1, true
	case n > 0 && p.total > 0:
		fraction, report = float64(p.read)/float64(p.total), true
		if fraction > 1 {
			fraction = 1
		}
	}
	p.mu.Unlock()

	if report {
		p.fn(fraction)
	}
	return n, err
}
