package mocks

import (
	"sync"

	"github.com/gaborage/dataaccess/activity"
)

// RecordingReporter is an activity.Reporter that records the call sequence
type RecordingReporter struct {
	mu    sync.Mutex
	calls []string
}

var _ activity.Reporter = (*RecordingReporter)(nil)

// Show implements activity.Reporter
func (r *RecordingReporter) Show() {
	r.record("show")
}

// Hide implements activity.Reporter
func (r *RecordingReporter) Hide() {
	r.record("hide")
}

// Calls returns a copy of the recorded calls
func (r *RecordingReporter) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *RecordingReporter) record(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}
