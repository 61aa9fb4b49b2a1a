package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progressEvent(f float64) Event {
	return Event{Kind: EventProgress, Progress: ProgressEvent{Fraction: f}}
}

func TestMailboxKeepsRoomForOutcome(t *testing.T) {
	m := newMailbox(3)

	assert.True(t, m.offer(progressEvent(0.1)))
	assert.True(t, m.offer(progressEvent(0.2)))
	assert.False(t, m.offer(progressEvent(0.3)))

	m.finish(Event{Kind: EventOutcome})

	var kinds []EventKind
	for ev := range m.ch {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{EventProgress, EventProgress, EventOutcome}, kinds)
}

func TestMailboxDropsAfterFinish(t *testing.T) {
	m := newMailbox(DefaultMailboxSize)
	m.finish(Event{Kind: EventOutcome})

	assert.False(t, m.offer(progressEvent(1)))
	require.NotPanics(t, func() { m.finish(Event{Kind: EventOutcome}) })

	n := 0
	for range m.ch {
		n++
	}
	assert.Equal(t, 1, n)
}

func TestMailboxMinimumSize(t *testing.T) {
	m := newMailbox(0)
	assert.Equal(t, 2, cap(m.ch))
	assert.True(t, m.offer(progressEvent(0.5)))
	assert.False(t, m.offer(progressEvent(0.6)))
}

func TestOutcomeSucceeded(t *testing.T) {
	assert.True(t, Outcome{}.Succeeded())
	assert.False(t, Outcome{Err: NewUnknownError("x", nil)}.Succeeded())
}
