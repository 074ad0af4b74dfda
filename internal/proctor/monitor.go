// Package proctor implements best-effort focus-loss detection for a single
// timed attempt. It is a heuristic, not tamper-proofing: the monitor reacts
// to window events reported by the locked-down student shell and escalates
// after repeated offenses. Instructor-facing sessions never attach a monitor.
package proctor

import (
	"sync"
	"time"
)

const (
	// DefaultMaxWarnings is how many violations are tolerated before the
	// attempt is terminated.
	DefaultMaxWarnings = 2

	// DefaultBlurDebounce delays counting a blur so transient OS dialogs do
	// not register as violations.
	DefaultBlurDebounce = 500 * time.Millisecond

	// DefaultDialogGrace suppresses blur violations for a short window after
	// the application opens one of its own native dialogs.
	DefaultDialogGrace = time.Second
)

// Config tunes the monitor. Zero values fall back to the defaults above.
type Config struct {
	MaxWarnings  int
	BlurDebounce time.Duration
	DialogGrace  time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxWarnings == 0 {
		c.MaxWarnings = DefaultMaxWarnings
	}
	if c.BlurDebounce == 0 {
		c.BlurDebounce = DefaultBlurDebounce
	}
	if c.DialogGrace == 0 {
		c.DialogGrace = DefaultDialogGrace
	}
	return c
}

// Monitor tracks violations for one session. The counter starts at zero when
// the session starts and dies with it; it is never shared across attempts.
type Monitor struct {
	mu sync.Mutex

	cfg      Config
	warnings int
	grace    bool
	stopped  bool

	blurTimer  *time.Timer
	graceTimer *time.Timer

	onViolation func(count, max int, escalated bool)
	onEscalate  func()
}

// New creates a monitor. onViolation fires exactly once per counted
// violation with the running count; escalated is true on the strike that
// crosses the threshold. onEscalate fires once, after that final
// onViolation, so the terminating strike is reported a single time.
// Either callback may be nil.
func New(cfg Config, onViolation func(count, max int, escalated bool), onEscalate func()) *Monitor {
	return &Monitor{
		cfg:         cfg.withDefaults(),
		onViolation: onViolation,
		onEscalate:  onEscalate,
	}
}

// Minimize counts a violation immediately: minimizing the window mid-exam is
// never ambiguous.
func (m *Monitor) Minimize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violate()
}

// Blur arms the debounce timer. If focus returns before it fires, nothing is
// counted. Blurs during the dialog grace window are ignored outright.
func (m *Monitor) Blur() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped || m.grace {
		return
	}
	if m.blurTimer != nil {
		m.blurTimer.Stop()
	}
	m.blurTimer = time.AfterFunc(m.cfg.BlurDebounce, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.violate()
	})
}

// Focus cancels a pending blur violation and clears the grace flag.
func (m *Monitor) Focus() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.blurTimer != nil {
		m.blurTimer.Stop()
		m.blurTimer = nil
	}
	m.grace = false
}

// DialogOpened arms the grace window: the blur caused by the application's
// own dialog must not count against the student.
func (m *Monitor) DialogOpened() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}
	m.grace = true
	if m.graceTimer != nil {
		m.graceTimer.Stop()
	}
	m.graceTimer = time.AfterFunc(m.cfg.DialogGrace, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.grace = false
	})
}

// Warnings returns the current violation count.
func (m *Monitor) Warnings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warnings
}

// Stop cancels pending timers. Call when the session ends for any reason.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	if m.blurTimer != nil {
		m.blurTimer.Stop()
		m.blurTimer = nil
	}
	if m.graceTimer != nil {
		m.graceTimer.Stop()
		m.graceTimer = nil
	}
}

// violate counts one violation and escalates past the threshold. Callers
// must hold the lock; callbacks run without it so they may call back in.
func (m *Monitor) violate() {
	if m.stopped {
		return
	}
	m.warnings++
	count := m.warnings
	escalate := count > m.cfg.MaxWarnings
	if escalate {
		m.stopped = true
	}

	onViolation := m.onViolation
	onEscalate := m.onEscalate

	m.mu.Unlock()
	if onViolation != nil {
		onViolation(count, m.cfg.MaxWarnings, escalate)
	}
	if escalate && onEscalate != nil {
		onEscalate()
	}
	m.mu.Lock()
}
