package pacer

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ddnowicki/live-captioning/types"
)

type nopRender struct {
	mu    sync.Mutex
	calls int
	last  []types.Line
}

func (r *nopRender) render(lines []types.Line) {
	r.mu.Lock()
	r.calls++
	r.last = lines
	r.mu.Unlock()
}

func newPacer(t *testing.T) (*Pacer, *nopRender) {
	t.Helper()
	r := &nopRender{}
	p, err := New(r.render)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p, r
}

// advanceNow drives one advance without waiting for the hold timer.
func advanceNow(p *Pacer) {
	p.mu.Lock()
	snapshot, rendered := p.advanceLocked()
	p.mu.Unlock()
	if rendered {
		p.render(snapshot)
	}
}

func TestPendingHardCap(t *testing.T) {
	p, _ := newPacer(t)

	for i := 1; i <= 40; i++ {
		p.Enqueue(fmt.Sprintf("line %d", i))
	}

	if got := p.PendingLen(); got > PendingCap {
		t.Fatalf("pending queue exceeded cap: %d", got)
	}
	// line 1 was rendered immediately; the retained backlog must be the
	// most recent 30 submitted
	want := "line 11"
	advanceNow(p)
	visible := p.Visible()
	if visible[len(visible)-1].Text != want {
		t.Errorf("oldest retained pending line: got %q, want %q",
			visible[len(visible)-1].Text, want)
	}
}

func TestVisibleCap(t *testing.T) {
	p, _ := newPacer(t)

	for i := 1; i <= 10; i++ {
		p.Enqueue(fmt.Sprintf("line %d", i))
		advanceNow(p)
	}

	visible := p.Visible()
	if len(visible) > VisibleCap {
		t.Fatalf("visible set exceeded cap: %d", len(visible))
	}
	for i, line := range visible {
		if i > 0 && line.ID <= visible[i-1].ID {
			t.Error("visible line ids are not increasing")
		}
	}
}

func TestLineIDsMonotonic(t *testing.T) {
	p, _ := newPacer(t)
	p.Enqueue("first line")
	p.Enqueue("second line")
	advanceNow(p)

	visible := p.Visible()
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible lines, got %d", len(visible))
	}
	if visible[0].ID != 1 || visible[1].ID != 2 {
		t.Errorf("ids not monotonically assigned: %d, %d", visible[0].ID, visible[1].ID)
	}
}

func TestDuplicateOfNewestSuppressed(t *testing.T) {
	p, _ := newPacer(t)

	p.Enqueue("powtórka")
	if len(p.Visible()) != 1 {
		t.Fatal("first line was not rendered")
	}

	p.Enqueue("powtórka")
	if got := p.PendingLen(); got != 0 {
		t.Errorf("duplicate of newest was queued, pending=%d", got)
	}
	if got := len(p.Visible()); got != 1 {
		t.Errorf("duplicate of newest changed visible set, len=%d", got)
	}

	// an earlier duplicate in history is not deduplicated
	p.Enqueue("inny wiersz")
	advanceNow(p) // "inny wiersz" becomes the most recently rendered
	p.Enqueue("powtórka")
	if got := p.PendingLen(); got != 1 {
		t.Errorf("earlier duplicate was wrongly suppressed, pending=%d", got)
	}
}

func TestTTLSweep(t *testing.T) {
	p, _ := newPacer(t)
	p.Enqueue("stara linia")

	p.mu.Lock()
	p.visible[0].CreatedAt = time.Now().Add(-LineTTL - time.Second)
	p.mu.Unlock()

	p.sweep()
	if got := len(p.Visible()); got != 0 {
		t.Fatalf("expired line survived the sweep, visible=%d", got)
	}
}

func TestSweepKeepsFreshLines(t *testing.T) {
	p, _ := newPacer(t)
	p.Enqueue("świeża linia")
	p.sweep()
	if got := len(p.Visible()); got != 1 {
		t.Fatalf("fresh line removed by sweep, visible=%d", got)
	}
}

func TestHoldDuration(t *testing.T) {
	// unaccelerated: base + 10 chars * 40ms
	if got := Hold("0123456789", 0); got != 1800*time.Millisecond {
		t.Errorf("unaccelerated hold: got %v, want 1800ms", got)
	}
	// clamped to max
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	if got := Hold(string(long), 0); got != holdMax {
		t.Errorf("long line hold: got %v, want %v", got, holdMax)
	}
	// backlog past the soft threshold accelerates
	accelerated := Hold("0123456789", 12)
	if accelerated >= 1800*time.Millisecond {
		t.Errorf("backlog did not accelerate: %v", accelerated)
	}
	if accelerated < holdFloor {
		t.Errorf("accelerated hold fell under the floor: %v", accelerated)
	}
	// deep backlog never drops below the floor
	if got := Hold("ab", 100); got < holdFloor {
		t.Errorf("deep backlog hold below floor: %v", got)
	}
}

func TestResetClearsQueueVisibleLingers(t *testing.T) {
	p, _ := newPacer(t)
	for i := 0; i < 5; i++ {
		p.Enqueue(fmt.Sprintf("wiersz %d", i))
	}

	p.Reset()

	if got := p.PendingLen(); got != 0 {
		t.Fatalf("reset left pending lines: %d", got)
	}
	if got := len(p.Visible()); got == 0 {
		t.Fatal("visible set cleared before the grace delay")
	}

	time.Sleep(ResetGrace + 300*time.Millisecond)
	if got := len(p.Visible()); got != 0 {
		t.Fatalf("visible set not cleared after the grace delay: %d", got)
	}
}

func TestEnqueueAfterResetCancelsGraceClear(t *testing.T) {
	p, _ := newPacer(t)
	p.Enqueue("stara linia")
	p.Reset()

	// a new session begins well inside the grace window
	time.Sleep(200 * time.Millisecond)
	p.Enqueue("nowa linia")

	time.Sleep(ResetGrace)
	visible := p.Visible()
	if len(visible) != 1 || visible[0].Text != "nowa linia" {
		t.Fatalf("stale grace timer corrupted the new session's visible set: %v", visible)
	}
}

func TestIdleAfterDrain(t *testing.T) {
	p, _ := newPacer(t)
	p.Enqueue("jedyna linia")
	advanceNow(p) // queue empty, goes idle

	p.mu.Lock()
	ticking := p.ticking
	p.mu.Unlock()
	if ticking {
		t.Error("pacer still ticking with nothing pending")
	}

	// a new line restarts ticking immediately
	p.Enqueue("kolejna linia")
	if got := len(p.Visible()); got != 2 {
		t.Errorf("idle pacer did not reveal new line immediately, visible=%d", got)
	}
}
