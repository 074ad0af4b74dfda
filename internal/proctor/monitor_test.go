package proctor

import (
	"sync"
	"testing"
	"time"
)

// fast config keeps timer-driven tests quick while preserving ordering.
func fastConfig() Config {
	return Config{
		MaxWarnings:  2,
		BlurDebounce: 10 * time.Millisecond,
		DialogGrace:  30 * time.Millisecond,
	}
}

type recorder struct {
	mu         sync.Mutex
	violations []int
	flagged    []bool
	escalated  bool
}

func (r *recorder) onViolation(count, _ int, escalated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, count)
	r.flagged = append(r.flagged, escalated)
}

func (r *recorder) onEscalate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.escalated = true
}

func (r *recorder) snapshot() ([]int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.violations...), r.escalated
}

func (r *recorder) flags() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.flagged...)
}

func TestMinimizeCountsImmediately(t *testing.T) {
	rec := &recorder{}
	m := New(fastConfig(), rec.onViolation, rec.onEscalate)
	defer m.Stop()

	m.Minimize()

	if got := m.Warnings(); got != 1 {
		t.Fatalf("expected 1 warning, got %d", got)
	}
	violations, escalated := rec.snapshot()
	if len(violations) != 1 || violations[0] != 1 {
		t.Fatalf("expected violation callback with count 1, got %v", violations)
	}
	if escalated {
		t.Fatal("single violation must not escalate")
	}
}

func TestBlurDebounceCancelledByFocus(t *testing.T) {
	rec := &recorder{}
	m := New(fastConfig(), rec.onViolation, rec.onEscalate)
	defer m.Stop()

	m.Blur()
	m.Focus() // refocus inside the debounce window

	time.Sleep(50 * time.Millisecond)

	if got := m.Warnings(); got != 0 {
		t.Fatalf("cancelled blur must not count, got %d warnings", got)
	}
}

func TestBlurCountsAfterDebounce(t *testing.T) {
	rec := &recorder{}
	m := New(fastConfig(), rec.onViolation, rec.onEscalate)
	defer m.Stop()

	m.Blur()
	time.Sleep(50 * time.Millisecond)

	if got := m.Warnings(); got != 1 {
		t.Fatalf("expected 1 warning after debounce, got %d", got)
	}
}

func TestDialogGraceSuppressesBlur(t *testing.T) {
	rec := &recorder{}
	m := New(fastConfig(), rec.onViolation, rec.onEscalate)
	defer m.Stop()

	m.DialogOpened()
	m.Blur() // blur caused by the app's own dialog

	time.Sleep(50 * time.Millisecond)

	if got := m.Warnings(); got != 0 {
		t.Fatalf("blur during grace must not count, got %d warnings", got)
	}

	// Grace has expired by now; a real blur counts again.
	m.Blur()
	time.Sleep(50 * time.Millisecond)

	if got := m.Warnings(); got != 1 {
		t.Fatalf("expected 1 warning after grace expiry, got %d", got)
	}
}

func TestEscalatesPastThreshold(t *testing.T) {
	rec := &recorder{}
	m := New(fastConfig(), rec.onViolation, rec.onEscalate)
	defer m.Stop()

	m.Minimize()
	m.Minimize()

	if _, escalated := rec.snapshot(); escalated {
		t.Fatal("must not escalate at the threshold")
	}

	m.Minimize() // third strike

	violations, escalated := rec.snapshot()
	if !escalated {
		t.Fatal("expected escalation past the threshold")
	}
	if len(violations) != 3 {
		t.Fatalf("expected 3 violation callbacks, got %d", len(violations))
	}

	// The terminating strike is reported once, flagged; earlier ones are not.
	if got := rec.flags(); len(got) != 3 || got[0] || got[1] || !got[2] {
		t.Fatalf("expected escalated flags [false false true], got %v", got)
	}

	// The monitor is dead after escalation.
	m.Minimize()
	if got := m.Warnings(); got != 3 {
		t.Fatalf("stopped monitor must not count, got %d", got)
	}
}

func TestStopCancelsPendingBlur(t *testing.T) {
	rec := &recorder{}
	m := New(fastConfig(), rec.onViolation, rec.onEscalate)

	m.Blur()
	m.Stop()

	time.Sleep(50 * time.Millisecond)

	if got := m.Warnings(); got != 0 {
		t.Fatalf("stopped monitor counted a blur: %d", got)
	}
}
