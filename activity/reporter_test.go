package activity

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gaborage/dataaccess/logger"
)

type countingReporter struct {
	mu    sync.Mutex
	shows int
	hides int
}

func (c *countingReporter) Show() {
	c.mu.Lock()
	c.shows++
	c.mu.Unlock()
}

func (c *countingReporter) Hide() {
	c.mu.Lock()
	c.hides++
	c.mu.Unlock()
}

func TestCounterOverlapping(t *testing.T) {
	inner := &countingReporter{}
	c := NewCounter(inner)

	c.Show()
	c.Show()
	assert.Equal(t, 2, c.Active())
	c.Hide()
	assert.Equal(t, 0, inner.hides)
	c.Hide()

	assert.Equal(t, 1, inner.shows)
	assert.Equal(t, 1, inner.hides)

	// unbalanced Hide is ignored
	c.Hide()
	assert.Equal(t, 1, inner.hides)
	assert.Equal(t, 0, c.Active())
}

func TestCounterConcurrent(t *testing.T) {
	inner := &countingReporter{}
	c := NewCounter(inner)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Show()
			c.Hide()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, c.Active())
	assert.Equal(t, inner.shows, inner.hides)
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(logger.NewWithWriter(&buf, "info", false, nil))
	r.Show()
	r.Hide()
	assert.Contains(t, buf.String(), "Activity started")
	assert.Contains(t, buf.String(), "Activity finished")

	Noop{}.Show()
	Noop{}.Hide()
}
