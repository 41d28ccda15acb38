package conn

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// State is the lifecycle state of one logical peer connection.
type State string

const (
	Disconnected State = "disconnected"
	Connected    State = "connected"
	Ready        State = "ready"
	Errored      State = "error"
)

const (
	// MaxAttempts is how many automatic reconnects are scheduled before
	// the manager gives up and enters the error state.
	MaxAttempts = 10

	baseDelay = 1000 * time.Millisecond
	maxDelay  = 30000 * time.Millisecond
)

// Backoff returns the reconnection delay for the given attempt number:
// min(1000 * 2^attempt, 30000) milliseconds.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := baseDelay << uint(attempt)
	if attempt > 5 || d > maxDelay {
		return maxDelay
	}
	return d
}

// Manager owns the lifecycle of one transport handle: it dials,
// tracks disconnected/connected/ready/error, and schedules exponential
// backoff reconnects after closures, up to MaxAttempts. At most one
// live handle and one pending retry timer exist at any time; a new
// connection attempt always tears both down first.
type Manager struct {
	mu      sync.Mutex
	dial    func() (io.Closer, error)
	onState func(State)

	state    State
	attempts int
	handle   io.Closer
	retry    *time.Timer
	dialing  bool
	closed   bool
}

// NewManager creates a Manager in the disconnected state. dial opens
// the transport; onState, if non-nil, is called on every transition.
func NewManager(dial func() (io.Closer, error), onState func(State)) (*Manager, error) {
	if dial == nil {
		return nil, fmt.Errorf("dial function is required")
	}
	return &Manager{
		dial:    dial,
		onState: onState,
		state:   Disconnected,
	}, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect tears down any existing handle, cancels any pending retry
// timer, and dials. On success the state becomes connected and the
// retry counter resets; a dial failure counts as a closure and
// schedules the next backoff attempt. Only one dial runs at a time: a
// Connect overlapping an in-flight attempt returns immediately, so at
// most one live handle can ever exist.
func (m *Manager) Connect() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("manager is shut down")
	}
	if m.dialing {
		m.mu.Unlock()
		return nil
	}
	m.dialing = true
	m.cancelRetryLocked()
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}
	dial := m.dial
	m.mu.Unlock()

	handle, err := dial()

	m.mu.Lock()
	m.dialing = false
	if m.closed {
		m.mu.Unlock()
		if handle != nil {
			handle.Close()
		}
		return errors.New("manager is shut down")
	}
	if err != nil {
		m.scheduleRetryLocked()
		m.mu.Unlock()
		return errors.Wrap(err, "dial failed")
	}
	// a closure observed mid-dial may have scheduled a retry; the fresh
	// handle supersedes it
	m.cancelRetryLocked()
	m.handle = handle
	m.attempts = 0
	m.setStateLocked(Connected)
	m.mu.Unlock()
	return nil
}

// MarkReady records that the peer signaled readiness (upstream resource
// warmed up). Only meaningful from the connected state.
func (m *Manager) MarkReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Connected {
		return
	}
	m.setStateLocked(Ready)
}

// ConnectionClosed records a transport closure: state drops to
// disconnected and, while the attempt ceiling is not exceeded, a
// reconnect is scheduled after the backoff delay.
func (m *Manager) ConnectionClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state == Errored {
		return
	}
	m.handle = nil
	m.setStateLocked(Disconnected)
	m.scheduleRetryLocked()
}

// ReportError surfaces a transport-level error that did not close the
// transport. It does not change state.
func (m *Manager) ReportError(err error) {
	log.Printf("transport error: %v", err)
}

// Shutdown stops reconnection and closes the live handle, if any.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cancelRetryLocked()
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}
	m.setStateLocked(Disconnected)
}

func (m *Manager) scheduleRetryLocked() {
	if m.attempts >= MaxAttempts {
		m.cancelRetryLocked()
		m.setStateLocked(Errored)
		return
	}
	delay := Backoff(m.attempts)
	m.attempts++
	m.cancelRetryLocked()
	m.retry = time.AfterFunc(delay, func() {
		if err := m.Connect(); err != nil {
			log.Printf("reconnect failed: %v", err)
		}
	})
}

func (m *Manager) cancelRetryLocked() {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	m.state = s
	if m.onState != nil {
		go m.onState(s)
	}
}
