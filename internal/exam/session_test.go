package exam

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/certprep/certprep-backend/internal/model"
)

// fakeClock is a manually advanced clock for deterministic timer tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func makeQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:           i + 1,
			QuestionText: fmt.Sprintf("question %d", i+1),
			OptionA:      "a", OptionB: "b", OptionC: "c", OptionD: "d",
			CorrectAnswer: model.OptionA,
			Domain:        "Security Operations",
		}
	}
	return qs
}

func newTestSession(t *testing.T, n int) (*Session, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s, err := New(7, makeQuestions(n), clock.Now)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, clock
}

func TestNewRejectsEmptySequence(t *testing.T) {
	if _, err := New(1, nil, nil); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestAnswerRecordsAndOverwritesWhileActive(t *testing.T) {
	s, _ := newTestSession(t, 3)

	if !s.Answer(model.OptionB) {
		t.Fatal("expected first answer to be accepted")
	}
	if !s.Answer(model.OptionC) {
		t.Fatal("expected overwrite to be accepted while active")
	}

	sub, err := mustSubmitVia(s)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := sub.Answers[1]; got != model.OptionC {
		t.Fatalf("expected overwritten answer C, got %q", got)
	}
}

func TestAnswerRejectsInvalidKey(t *testing.T) {
	s, _ := newTestSession(t, 1)
	if s.Answer("E") {
		t.Fatal("expected invalid option key to be rejected")
	}
	if s.AnsweredCount() != 0 {
		t.Fatalf("expected no stored answer, got %d", s.AnsweredCount())
	}
}

func TestQuestionTimerFreezesAnswer(t *testing.T) {
	s, clock := newTestSession(t, 2)

	if !s.Answer(model.OptionA) {
		t.Fatal("answer before freeze should be accepted")
	}

	clock.Advance(QuestionTime)

	if got := s.State(); got != StateFrozen {
		t.Fatalf("expected frozen state, got %v", got)
	}
	if s.Answer(model.OptionD) {
		t.Fatal("answer after freeze must be a no-op")
	}

	sub, err := mustSubmitVia(s)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := sub.Answers[1]; got != model.OptionA {
		t.Fatalf("frozen answer changed: got %q, want A", got)
	}
}

func TestAdvanceResetsQuestionTimerAndClearsFreeze(t *testing.T) {
	s, clock := newTestSession(t, 2)

	clock.Advance(QuestionTime) // freeze question 1
	if got := s.State(); got != StateFrozen {
		t.Fatalf("expected frozen, got %v", got)
	}

	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := s.State(); got != StateActive {
		t.Fatalf("expected active after advance, got %v", got)
	}
	if got := s.QuestionRemaining(); got != QuestionTime {
		t.Fatalf("expected full question timer after advance, got %v", got)
	}

	_, idx := s.Current()
	if idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	if !s.Answer(model.OptionB) {
		t.Fatal("answer on fresh question should be accepted")
	}
}

func TestAdvanceDisallowedOnLastQuestion(t *testing.T) {
	s, _ := newTestSession(t, 1)
	if err := s.Advance(); !errors.Is(err, ErrLastQuestion) {
		t.Fatalf("expected ErrLastQuestion, got %v", err)
	}
}

func TestNoBacktrackAnswersImmutableAfterAdvance(t *testing.T) {
	s, _ := newTestSession(t, 3)

	s.Answer(model.OptionA)
	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}

	// Current question is now 2; answering cannot touch question 1.
	s.Answer(model.OptionD)

	sub, err := mustSubmitVia(s)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Answers[1] != model.OptionA {
		t.Fatalf("prior answer mutated: got %q", sub.Answers[1])
	}
	if sub.Answers[2] != model.OptionD {
		t.Fatalf("current answer missing: got %q", sub.Answers[2])
	}
}

func TestExamTimerForcesSubmissionOverFrozenState(t *testing.T) {
	s, clock := newTestSession(t, 2)

	clock.Advance(QuestionTime) // frozen, but exam clock still running
	clock.Advance(ExamDuration) // exam deadline dominates

	if got := s.State(); got != StateSubmitted {
		t.Fatalf("expected submitted after exam expiry, got %v", got)
	}
	if s.Answer(model.OptionA) {
		t.Fatal("answer after exam expiry must be rejected")
	}
	if err := s.Advance(); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted from advance, got %v", err)
	}

	// The forced submission still hands off the answer set exactly once.
	sub, err := s.Submit()
	if err != nil {
		t.Fatalf("first submit after expiry: %v", err)
	}
	if sub.Elapsed != ExamDuration {
		t.Fatalf("elapsed should cap at exam duration, got %v", sub.Elapsed)
	}

	if _, err := s.Submit(); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second submit must be rejected, got %v", err)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	s, clock := newTestSession(t, 2)
	clock.Advance(42 * time.Second)

	sub, err := s.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Elapsed != 42*time.Second {
		t.Fatalf("expected elapsed 42s, got %v", sub.Elapsed)
	}
	if sub.UserID != 7 {
		t.Fatalf("expected owner 7, got %d", sub.UserID)
	}
	if sub.Token == "" {
		t.Fatal("expected a submission token")
	}

	if _, err := s.Submit(); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestPartialSubmissionKeepsOnlyAnsweredQuestions(t *testing.T) {
	s, _ := newTestSession(t, 5)

	s.Answer(model.OptionA)
	s.Advance()
	s.Advance() // skip question 2 entirely
	s.Answer(model.OptionB)

	sub, err := s.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(sub.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(sub.Answers))
	}
	if _, ok := sub.Answers[2]; ok {
		t.Fatal("skipped question must stay unanswered")
	}
}

func TestRemainingClocksFloorAtZero(t *testing.T) {
	s, clock := newTestSession(t, 1)
	clock.Advance(ExamDuration + time.Hour)

	if got := s.QuestionRemaining(); got != 0 {
		t.Fatalf("question remaining should floor at zero, got %v", got)
	}
	if got := s.ExamRemaining(); got != 0 {
		t.Fatalf("exam remaining should floor at zero, got %v", got)
	}
}

// mustSubmitVia submits regardless of current position, mirroring the forced
// submit path used by the transport layer.
func mustSubmitVia(s *Session) (Submission, error) {
	return s.Submit()
}
