// Package activity defines the port used to show and hide a busy indicator
// while executions that asked for it are in flight.
package activity

import (
	"sync"

	"github.com/gaborage/dataaccess/logger"
)

// Reporter shows or hides an activity indicator.
// Calls may arrive from any goroutine.
type Reporter interface {
	Show()
	Hide()
}

// Noop ignores every call.
type Noop struct{}

func (Noop) Show() {}
func (Noop) Hide() {}

// Counter wraps a Reporter so that overlapping executions share one indicator.
// The inner Show runs when the count leaves zero and Hide when it returns to zero.
type Counter struct {
	mu     sync.Mutex
	count  int
	target Reporter
}

// NewCounter creates a reference-counted reporter around target
func NewCounter(target Reporter) *Counter {
	if target == nil {
		target = Noop{}
	}
	return &Counter{target: target}
}

func (c *Counter) Show() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if c.count == 1 {
		c.target.Show()
	}
}

func (c *Counter) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count == 0 {
		return
	}
	c.count--
	if c.count == 0 {
		c.target.Hide()
	}
}

// Active reports how many Show calls are outstanding
func (c *Counter) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// LogReporter writes indicator transitions to a logger. The CLI uses it in place of a spinner.
type LogReporter struct {
	log logger.Logger
}

// NewLogReporter creates a LogReporter
func NewLogReporter(log logger.Logger) *LogReporter {
	if log == nil {
		log = logger.Nop()
	}
	return &LogReporter{log: log}
}

func (r *LogReporter) Show() { r.log.Info().Msg("Activity started") }
func (r *LogReporter) Hide() { r.log.Info().Msg("Activity finished") }
