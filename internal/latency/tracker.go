// Package latency measures round trips of ping/pong timing events.
//
// A Tracker allows one outstanding ping. Begin stamps the outbound event and
// marks it pending; Reconcile consumes the pong and turns each echoed event
// into a Sample. Self-logged events are measured against the local clock,
// events logged by relays carry their own elapsed value.
package latency

import (
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/danmuck/orwellctl/internal/protocol/messages"
)

var ErrNoTimingEvents = errors.New("latency: pong carried no timing events")

// Sample is one measured hop.
type Sample struct {
	Logger       string
	Timestamp    uint64
	Elapsed      time.Duration
	SelfMeasured bool
}

// Reporter receives every sample produced by Reconcile.
type Reporter interface {
	ReportLatency(Sample)
}

// Tracker owns the pending-ping flag. Not safe for concurrent use; it lives
// on the engine goroutine.
type Tracker struct {
	clock   clock.Clock
	name    string
	timeout time.Duration
	pending bool
	sentAt  time.Time
}

// NewTracker builds a tracker for events logged as name. A positive timeout
// releases a pending ping whose pong never arrived.
func NewTracker(c clock.Clock, name string, timeout time.Duration) *Tracker {
	if c == nil {
		c = clock.New()
	}
	return &Tracker{clock: c, name: name, timeout: timeout}
}

// Pending reports whether a ping is outstanding.
func (t *Tracker) Pending() bool {
	if t.pending && t.timeout > 0 && t.clock.Since(t.sentAt) >= t.timeout {
		t.pending = false
	}
	return t.pending
}

// Expired reports whether the outstanding ping has outlived the timeout.
func (t *Tracker) Expired() bool {
	return t.pending && t.timeout > 0 && t.clock.Since(t.sentAt) >= t.timeout
}

// Begin marks a ping pending and returns its timing event.
func (t *Tracker) Begin() messages.Timing {
	now := t.clock.Now()
	t.pending = true
	t.sentAt = now
	return messages.Timing{
		Logger:    t.name,
		Timestamp: uint64(now.UnixMilli()),
	}
}

// Reconcile clears the pending flag and converts the pong's events. The
// flag is cleared even when the pong carries no events.
func (t *Tracker) Reconcile(events []messages.Timing) ([]Sample, error) {
	t.pending = false
	if len(events) == 0 {
		return nil, ErrNoTimingEvents
	}
	nowMS := uint64(t.clock.Now().UnixMilli())
	samples := make([]Sample, 0, len(events))
	for _, ev := range events {
		s := Sample{Logger: ev.Logger, Timestamp: ev.Timestamp}
		if ev.Logger == t.name {
			s.Elapsed = Elapsed(ev.Timestamp, nowMS)
			s.SelfMeasured = true
		} else {
			s.Elapsed = time.Duration(ev.Elapsed) * time.Millisecond
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// Elapsed is recvMS - sentMS, clamped at zero when clocks disagree.
func Elapsed(sentMS, recvMS uint64) time.Duration {
	if recvMS <= sentMS {
		return 0
	}
	return time.Duration(recvMS-sentMS) * time.Millisecond
}
