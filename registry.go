package mockrobot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

type MotionKind string

const (
	MotionHome  MotionKind = "home"
	MotionPick  MotionKind = "pick"
	MotionPlace MotionKind = "place"
)

type motion struct {
	ID       uuid.UUID
	Kind     MotionKind
	Location int
	Started  time.Time
}

// Registry holds the process-wide status code and simulates motions.
// Each motion is an entry in an expiring cache; expiry of the current
// motion's entry completes it.
type Registry struct {
	mu      sync.RWMutex
	code    StatusCode
	current uuid.UUID

	conf    MotionConfig
	motions *ttlcache.Cache[uuid.UUID, motion]

	unsubscribe func()
	closeOnce   sync.Once

	l *slog.Logger
}

func NewRegistry(conf MotionConfig, logger *slog.Logger) *Registry {
	conf.SetDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		code: StatusIdle,
		conf: conf,
		l:    logger,
	}

	motions := ttlcache.New[uuid.UUID, motion](
		ttlcache.WithDisableTouchOnHit[uuid.UUID, motion](),
	)
	r.unsubscribe = motions.OnEviction(func(ctx context.Context, er ttlcache.EvictionReason, i *ttlcache.Item[uuid.UUID, motion]) {
		if er != ttlcache.EvictionReasonExpired {
			return
		}
		r.resolve(i.Value())
	})
	go motions.Start()

	r.motions = motions
	return r
}

// Begin starts a motion of the given kind. It fails with StatusRejected and
// ErrInProgress while another motion is in flight.
func (r *Registry) Begin(kind MotionKind, location int) (StatusCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.code == StatusInProgress {
		return StatusRejected, ErrInProgress
	}

	m := motion{
		ID:       uuid.New(),
		Kind:     kind,
		Location: location,
		Started:  time.Now(),
	}
	r.code = StatusInProgress
	r.current = m.ID
	r.motions.Set(m.ID, m, r.conf.durationOf(kind))

	r.l.Debug("motion started", "motion_id", m.ID, "kind", kind, "location", location)
	return r.code, nil
}

func (r *Registry) resolve(m motion) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != m.ID {
		r.l.Debug("stale motion expired", "motion_id", m.ID)
		return
	}

	r.code = StatusFinished
	r.current = uuid.Nil
	r.l.Debug("motion finished", "motion_id", m.ID, "kind", m.Kind,
		"elapsed", time.Since(m.Started))
}

// Interrupt terminates the motion in flight, if any, and reports whether
// one was terminated.
func (r *Registry) Interrupt() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == uuid.Nil {
		return false
	}

	id := r.current
	r.code = StatusTerminated
	r.current = uuid.Nil
	r.motions.Delete(id)

	r.l.Info("motion terminated", "motion_id", id)
	return true
}

// Reset puts an idle registry back to StatusIdle.
func (r *Registry) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.code == StatusInProgress {
		return ErrInProgress
	}
	r.code = StatusIdle
	return nil
}

func (r *Registry) CurrentCode() StatusCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.code
}

func (r *Registry) Text(code StatusCode) (string, error) {
	return StatusText(code)
}

// Close stops the motion timers and waits for completions already running.
// A motion still in flight is never completed afterwards.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		r.motions.Stop()
		r.unsubscribe()
	})
}
