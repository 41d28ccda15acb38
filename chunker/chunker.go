package chunker

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultCeiling is the longest a chunk may accumulate before it is
// flushed, measured from its first fragment.
const DefaultCeiling = 2000 * time.Millisecond

// Accumulator groups recognized-text fragments into time-bounded
// chunks. A chunk is flushed no later than the ceiling after its first
// fragment arrived, either synchronously on append or by the deadline
// timer, and immediately on ForceFlush (utterance boundary). Empty
// chunks are never emitted.
type Accumulator struct {
	mu        sync.Mutex
	parts     []string
	startedAt time.Time
	timer     *time.Timer // single-slot deadline handle, cancel before re-arm
	gen       uint64      // bumped on every flush so a stale timer cannot fire into a new chunk
	ceiling   time.Duration
	emit      func(string)
	now       func() time.Time
}

// New creates an Accumulator that calls emit with the accumulated,
// space-joined chunk text on every flush. A non-positive ceiling falls
// back to DefaultCeiling.
func New(ceiling time.Duration, emit func(string)) (*Accumulator, error) {
	if emit == nil {
		return nil, fmt.Errorf("emit callback is required")
	}
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Accumulator{
		ceiling: ceiling,
		emit:    emit,
		now:     time.Now,
	}, nil
}

// OnFragment appends whitespace-normalized text to the current chunk,
// starting its age clock if it was empty. If the chunk has reached the
// ceiling the flush happens synchronously; otherwise the deadline timer
// is re-armed for the remainder.
func (a *Accumulator) OnFragment(text string) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return
	}

	a.mu.Lock()
	if len(a.parts) == 0 {
		a.startedAt = a.now()
	}
	a.parts = append(a.parts, text)

	elapsed := a.now().Sub(a.startedAt)
	if elapsed >= a.ceiling {
		chunk := a.takeLocked()
		a.mu.Unlock()
		a.emit(chunk)
		return
	}
	a.armLocked(a.ceiling - elapsed)
	a.mu.Unlock()
}

// ForceFlush flushes the current chunk regardless of age and cancels
// the pending deadline timer. A no-op on an empty chunk.
func (a *Accumulator) ForceFlush() {
	a.mu.Lock()
	chunk := a.takeLocked()
	a.mu.Unlock()
	if chunk != "" {
		a.emit(chunk)
	}
}

// Len returns the number of buffered fragments.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.parts)
}

// takeLocked stops the timer and drains the chunk, returning its text
// ("" when empty). Caller holds the lock.
func (a *Accumulator) takeLocked() string {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
	if len(a.parts) == 0 {
		return ""
	}
	chunk := strings.Join(a.parts, " ")
	a.parts = nil
	return chunk
}

func (a *Accumulator) armLocked(d time.Duration) {
	if a.timer != nil {
		a.timer.Stop()
	}
	gen := a.gen
	a.timer = time.AfterFunc(d, func() { a.deadline(gen) })
}

func (a *Accumulator) deadline(gen uint64) {
	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		return
	}
	chunk := a.takeLocked()
	a.mu.Unlock()
	if chunk != "" {
		a.emit(chunk)
	}
}
