package pacer

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ddnowicki/live-captioning/queue"
	"github.com/ddnowicki/live-captioning/types"
)

const (
	// PendingCap hard-caps the pending queue; beyond it the oldest
	// entries are shed so the newest lines win over completeness.
	PendingCap = 30
	// VisibleCap is how many lines stay on screen; older ones scroll off.
	VisibleCap = 4
	// LineTTL is how long a rendered line may stay visible.
	LineTTL = 20 * time.Second
	// SweepInterval is how often expired lines are removed.
	SweepInterval = 1000 * time.Millisecond
	// ResetGrace is how long the last visible lines linger after a
	// reset before the screen is cleared.
	ResetGrace = 1500 * time.Millisecond

	holdBase      = 1400 * time.Millisecond
	holdPerChar   = 40 * time.Millisecond
	holdMax       = 6000 * time.Millisecond
	holdFloor     = 500 * time.Millisecond
	softThreshold = 8
)

// Hold computes how long a line stays active before the next one is
// revealed: base plus a per-character scan allowance, clamped, then
// shortened when the backlog exceeds the soft threshold so the pacer
// catches up instead of lagging. The shortened duration never drops
// below the floor.
func Hold(text string, backlog int) time.Duration {
	d := holdBase + time.Duration(utf8.RuneCountInString(text))*holdPerChar
	if d < holdBase {
		d = holdBase
	}
	if d > holdMax {
		d = holdMax
	}
	if backlog > softThreshold {
		factor := math.Min(0.6, 1-float64(backlog-softThreshold)*0.05)
		ms := math.Floor(float64(d.Milliseconds()) * (1 - factor))
		d = time.Duration(ms) * time.Millisecond
		if d < holdFloor {
			d = holdFloor
		}
	}
	return d
}

// Pacer reveals queued lines one at a time per viewer. It is a two
// state machine: Idle (nothing showing, no timer armed) and Ticking
// (one line active with its hold timer running). Overflow is shed at
// PendingCap and visible lines expire after LineTTL.
type Pacer struct {
	mu           sync.Mutex
	pending      *queue.Queue[string]
	visible      []types.Line
	nextID       uint64
	lastRendered string
	ticking      bool

	holdTimer *time.Timer // single-slot, cancelled before re-arm
	holdGen   uint64
	grace     *time.Timer

	render func([]types.Line)
	now    func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a Pacer that calls render with the visible set after
// every change to it.
func New(render func([]types.Line)) (*Pacer, error) {
	if render == nil {
		return nil, fmt.Errorf("render callback is required")
	}
	return &Pacer{
		pending: queue.New[string](),
		render:  render,
		now:     time.Now,
		stop:    make(chan struct{}),
	}, nil
}

// Start launches the periodic TTL sweep. Call Stop to end it.
func (p *Pacer) Start() {
	go func() {
		ticker := time.NewTicker(SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.sweep()
			case <-p.stop:
				return
			}
		}
	}()
}

// Stop ends the sweep loop and cancels any armed timers.
func (p *Pacer) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.mu.Lock()
	p.cancelHoldLocked()
	if p.grace != nil {
		p.grace.Stop()
		p.grace = nil
	}
	p.ticking = false
	p.mu.Unlock()
}

// Enqueue normalizes and appends lines to the pending queue, shedding
// the oldest entries beyond PendingCap. Enqueueing the exact text of
// the most recently rendered line is suppressed to absorb exact-repeat
// noise from upstream. If the pacer was idle the first line is revealed
// immediately.
func (p *Pacer) Enqueue(lines ...string) {
	p.mu.Lock()
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" || line == p.lastRendered {
			continue
		}
		p.pending.Enqueue(line)
	}
	p.pending.TruncateOldest(PendingCap)
	var snapshot []types.Line
	rendered := false
	if !p.ticking {
		snapshot, rendered = p.advanceLocked()
	}
	p.mu.Unlock()
	if rendered {
		p.render(snapshot)
	}
}

// Reset clears the pending queue and any armed hold timer, forcing the
// pacer idle. Visible lines linger for the grace delay before the
// screen clears, so the last line stays legible.
func (p *Pacer) Reset() {
	p.mu.Lock()
	p.pending.Clear()
	p.cancelHoldLocked()
	p.ticking = false
	p.lastRendered = ""
	if p.grace != nil {
		p.grace.Stop()
	}
	p.grace = time.AfterFunc(ResetGrace, p.clearVisible)
	p.mu.Unlock()
}

// PendingLen returns the current backlog.
func (p *Pacer) PendingLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.Len()
}

// Visible returns a copy of the visible set.
func (p *Pacer) Visible() []types.Line {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.Line(nil), p.visible...)
}

// advanceLocked pops the oldest pending line, appends it to the visible
// set, and arms the hold timer. With nothing pending the pacer goes
// idle. It returns the new visible snapshot to render, if any.
func (p *Pacer) advanceLocked() ([]types.Line, bool) {
	text, ok := p.pending.Dequeue()
	if !ok {
		p.ticking = false
		return nil, false
	}
	p.ticking = true
	// a reset's grace clear still pending at this point belongs to the
	// previous session: apply it now instead of letting the stale timer
	// wipe the fresh line later
	if p.grace != nil {
		p.grace.Stop()
		p.grace = nil
		p.visible = nil
	}
	p.nextID++
	p.visible = append(p.visible, types.Line{
		ID:        p.nextID,
		Text:      text,
		CreatedAt: p.now(),
	})
	if len(p.visible) > VisibleCap {
		p.visible = append([]types.Line(nil), p.visible[len(p.visible)-VisibleCap:]...)
	}
	p.lastRendered = text

	p.cancelHoldLocked()
	gen := p.holdGen
	p.holdTimer = time.AfterFunc(Hold(text, p.pending.Len()), func() { p.holdExpired(gen) })

	return append([]types.Line(nil), p.visible...), true
}

func (p *Pacer) holdExpired(gen uint64) {
	p.mu.Lock()
	if gen != p.holdGen {
		p.mu.Unlock()
		return
	}
	snapshot, rendered := p.advanceLocked()
	p.mu.Unlock()
	if rendered {
		p.render(snapshot)
	}
}

func (p *Pacer) cancelHoldLocked() {
	if p.holdTimer != nil {
		p.holdTimer.Stop()
		p.holdTimer = nil
	}
	p.holdGen++
}

// sweep removes visible lines older than LineTTL, regardless of pacing
// state, so a silent viewer eventually sees the screen clear.
func (p *Pacer) sweep() {
	p.mu.Lock()
	cutoff := p.now().Add(-LineTTL)
	kept := p.visible[:0]
	for _, line := range p.visible {
		if line.CreatedAt.After(cutoff) {
			kept = append(kept, line)
		}
	}
	changed := len(kept) != len(p.visible)
	p.visible = kept
	var snapshot []types.Line
	if changed {
		snapshot = append([]types.Line(nil), p.visible...)
	}
	p.mu.Unlock()
	if changed {
		p.render(snapshot)
	}
}

func (p *Pacer) clearVisible() {
	p.mu.Lock()
	changed := len(p.visible) > 0
	p.visible = nil
	p.mu.Unlock()
	if changed {
		p.render(nil)
	}
}
