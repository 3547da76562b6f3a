package playback

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/types"
)

// Ticker is the part of *time.Ticker the player needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Player owns a Controller and the recurring timer that advances it. Exactly
// one timer task exists while a story is showing; it is cancelled and replaced
// on every index change, and torn down when the player stops.
type Player struct {
	mu   sync.Mutex
	ctrl *Controller

	newTicker func(time.Duration) Ticker
	observer  func(Snapshot)
	logger    *zap.Logger

	running bool
	// gen identifies the live timer task. Ticks from an older task are dropped.
	gen         uint64
	cancelTimer context.CancelFunc
	done        chan struct{}
}

type Option func(*Player)

// WithTicker replaces time.NewTicker, mostly for tests.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(p *Player) { p.newTicker = f }
}

// WithObserver registers fn to receive a snapshot after every state change.
// fn runs outside the player lock and may be called from the timer goroutine.
func WithObserver(fn func(Snapshot)) Option {
	return func(p *Player) { p.observer = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Player) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewPlayer(ctrl *Controller, opts ...Option) *Player {
	p := &Player{
		ctrl:      ctrl,
		newTicker: newRealTicker,
		observer:  func(Snapshot) {},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins playback and stops it when ctx is done. Calling Start on a
// running player is a no-op.
func (p *Player) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.done = make(chan struct{})
	done := p.done
	p.restartTimerLocked()
	snap := p.ctrl.Snapshot()
	p.mu.Unlock()

	p.observer(snap)

	go func() {
		select {
		case <-ctx.Done():
			p.Stop()
		case <-done:
		}
	}()
}

// Stop cancels the timer. The state is kept, so a later Start resumes from it.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	p.stopTimerLocked()
	close(p.done)
	p.logger.Debug("playback stopped")
}

func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctrl.Snapshot()
}

func (p *Player) Next() Snapshot {
	return p.apply(func(c *Controller) bool { return c.Next() })
}

func (p *Player) Prev() Snapshot {
	return p.apply(func(c *Controller) bool { return c.Prev() })
}

// Replace applies ListRefetched: Showing(0) or Empty on the new list.
func (p *Player) Replace(stories []types.Story) Snapshot {
	return p.apply(func(c *Controller) bool {
		c.ListRefetched(stories)
		return true
	})
}

func (p *Player) apply(fn func(*Controller) bool) Snapshot {
	p.mu.Lock()
	if fn(p.ctrl) && p.running {
		p.restartTimerLocked()
	}
	snap := p.ctrl.Snapshot()
	p.mu.Unlock()

	p.observer(snap)
	return snap
}

func (p *Player) stopTimerLocked() {
	p.gen++
	if p.cancelTimer != nil {
		p.cancelTimer()
		p.cancelTimer = nil
	}
}

// restartTimerLocked replaces the timer task. Nothing runs while Empty.
func (p *Player) restartTimerLocked() {
	p.stopTimerLocked()
	if p.ctrl.Empty() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancelTimer = cancel
	ticker := p.newTicker(p.ctrl.Interval())
	go p.runTimer(ctx, p.gen, ticker)
}

func (p *Player) runTimer(ctx context.Context, gen uint64, ticker Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.mu.Lock()
			if gen != p.gen {
				p.mu.Unlock()
				return
			}
			moved := p.ctrl.Tick()
			if moved {
				p.restartTimerLocked()
			}
			snap := p.ctrl.Snapshot()
			p.mu.Unlock()

			p.observer(snap)
			if moved {
				return
			}
		}
	}
}
