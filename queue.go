package mockrobot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ValerySidorin/mockrobot/internal/protocol"
)

// Entry is one primitive of a queued operation.
type Entry struct {
	Command  protocol.Command
	Location int
}

func (e Entry) param() protocol.Param {
	if e.Command == protocol.HomeCommand {
		return protocol.NoParam()
	}
	return protocol.IntParam(e.Location)
}

// Observation is the status last seen by the poller. Seq is the round trip
// that produced it.
type Observation struct {
	Code   StatusCode
	Status string
	Seq    uint64
}

type session interface {
	Connected() bool
	Observe() Observation
	issue(e Entry) (uint64, error)
}

// Queue issues entries one at a time, each only after the previous one is
// observed to be done.
type Queue struct {
	s        session
	interval time.Duration
	l        *slog.Logger

	mu      sync.Mutex
	entries []Entry
}

func newQueue(s session, interval time.Duration, logger *slog.Logger, entries ...Entry) *Queue {
	return &Queue{
		s:        s,
		interval: interval,
		l:        logger,
		entries:  append([]Entry(nil), entries...),
	}
}

// Run drains the queue. Remaining entries are discarded when the session
// disconnects, an entry is refused or ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	var issued uint64
	for {
		e, ok := q.peek()
		if !ok {
			return nil
		}

		select {
		case <-ctx.Done():
			q.discard()
			return ctx.Err()
		case <-ticker.C:
		}

		if !q.s.Connected() {
			q.discard()
			return driverError("No connection available", ErrNotConnected)
		}

		obs := q.s.Observe()
		if obs.Seq <= issued || obs.Code == StatusInProgress {
			continue
		}

		seq, err := q.s.issue(e)
		if err != nil {
			q.l.Warn("queue stopped", "command", e.Command, "location", e.Location, "err", err)
			q.discard()
			return err
		}
		q.l.Debug("queue entry issued", "command", e.Command, "location", e.Location, "seq", seq)

		q.pop()
		issued = seq
	}
}

// Pending returns the entries not issued yet.
func (q *Queue) Pending() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Entry(nil), q.entries...)
}

func (q *Queue) peek() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	return q.entries[0], true
}

func (q *Queue) pop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = q.entries[1:]
}

func (q *Queue) discard() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
}
