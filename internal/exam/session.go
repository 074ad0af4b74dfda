package exam

import (
	"errors"
	"sync"
	"time"

	"github.com/certprep/certprep-backend/internal/model"
	"github.com/google/uuid"
)

const (
	// QuestionsPerSession is the fixed attempt length. The sequence is drawn
	// once at session start and never changes for the session's lifetime.
	QuestionsPerSession = 100

	// QuestionTime is the per-question countdown. When it expires the current
	// question freezes: the stored answer can no longer change, but the
	// student must still advance explicitly.
	QuestionTime = 90 * time.Second

	// ExamDuration is the whole-exam countdown. Expiry forces submission
	// regardless of the current question or its frozen state.
	ExamDuration = 150 * time.Minute
)

// State is the session's position in the per-question state machine.
type State int

const (
	// StateActive accepts answer changes for the current question.
	StateActive State = iota
	// StateFrozen locks the current answer until the student advances.
	StateFrozen
	// StateSubmitted is terminal. All further interaction is rejected.
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFrozen:
		return "frozen"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

var (
	// ErrAlreadySubmitted is returned when the answer set was already handed
	// off, either by an explicit submit or by exam-timer expiry.
	ErrAlreadySubmitted = errors.New("session already submitted")

	// ErrLastQuestion is returned by Advance on the final question; the
	// caller must submit instead.
	ErrLastQuestion = errors.New("no next question, submit instead")

	// ErrNoQuestions is returned by New for an empty question sequence.
	ErrNoQuestions = errors.New("session requires at least one question")
)

// Submission is the finalized answer set handed to the scoring engine.
type Submission struct {
	UserID  int
	Token   string
	Answers map[int]model.OptionKey
	Elapsed time.Duration
}

// Session runs exactly one timed attempt with forward-only navigation.
// All methods are safe for concurrent use; deadline transitions are applied
// lazily on every interaction, so an expired timer takes effect even if no
// background goroutine fires.
type Session struct {
	mu sync.Mutex

	userID    int
	token     string
	questions []model.Question
	answers   map[int]model.OptionKey

	index     int
	state     State
	finalized bool

	startedAt        time.Time
	questionDeadline time.Time
	examDeadline     time.Time

	now func() time.Time
}

// New creates a session over the given fixed question sequence. clock may be
// nil, in which case time.Now is used; tests inject a fake clock.
func New(userID int, questions []model.Question, clock func() time.Time) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if clock == nil {
		clock = time.Now
	}

	start := clock()
	return &Session{
		userID:           userID,
		token:            uuid.New().String(),
		questions:        questions,
		answers:          make(map[int]model.OptionKey, len(questions)),
		startedAt:        start,
		questionDeadline: start.Add(QuestionTime),
		examDeadline:     start.Add(ExamDuration),
		now:              clock,
	}, nil
}

// refresh rolls the state machine forward based on the clock. The exam
// deadline dominates: once it has passed the session is Submitted no matter
// what the per-question timer says. Callers must hold the lock.
func (s *Session) refresh() {
	if s.state == StateSubmitted {
		return
	}
	now := s.now()
	if !now.Before(s.examDeadline) {
		s.state = StateSubmitted
		return
	}
	if s.state == StateActive && !now.Before(s.questionDeadline) {
		s.state = StateFrozen
	}
}

// Answer records the option for the current question, overwriting any prior
// choice. It reports false, without error, when the session is frozen or
// submitted, or the key is not one of A–D. Answering after time-up is a
// rejected interaction, not a failure.
func (s *Session) Answer(key model.OptionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refresh()
	if s.state != StateActive || !model.ValidOptionKey(key) {
		return false
	}
	s.answers[s.questions[s.index].ID] = key
	return true
}

// Advance moves to the next question, resetting the per-question timer and
// clearing the frozen flag. The answer to the question being left behind is
// immutable from here on; there is no going back.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refresh()
	if s.state == StateSubmitted {
		return ErrAlreadySubmitted
	}
	if s.index == len(s.questions)-1 {
		return ErrLastQuestion
	}

	s.index++
	s.questionDeadline = s.now().Add(QuestionTime)
	s.state = StateActive
	return nil
}

// Submit finalizes the answer set exactly once and returns it for scoring.
// Partial answer sets are allowed; unanswered questions score as incorrect.
// A second call, including a manual submit after the exam timer already
// forced termination, returns ErrAlreadySubmitted.
func (s *Session) Submit() (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return Submission{}, ErrAlreadySubmitted
	}
	s.finalized = true
	s.state = StateSubmitted

	elapsed := s.now().Sub(s.startedAt)
	if elapsed > ExamDuration {
		elapsed = ExamDuration
	}
	if elapsed < 0 {
		elapsed = 0
	}

	answers := make(map[int]model.OptionKey, len(s.answers))
	for id, key := range s.answers {
		answers[id] = key
	}

	return Submission{
		UserID:  s.userID,
		Token:   s.token,
		Answers: answers,
		Elapsed: elapsed,
	}, nil
}

// Current returns the student-safe view of the active question and its
// zero-based index.
func (s *Session) Current() (model.QuestionForStudent, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions[s.index].ForStudent(), s.index
}

// State reports the session state after applying any expired deadlines.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	return s.state
}

// AnsweredCount reports how many questions currently hold an answer.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// Len returns the fixed question sequence length.
func (s *Session) Len() int {
	return len(s.questions)
}

// QuestionIDs returns the session's full question sequence in order.
func (s *Session) QuestionIDs() []int {
	ids := make([]int, len(s.questions))
	for i, q := range s.questions {
		ids[i] = q.ID
	}
	return ids
}

// Questions returns student-safe views of the full sequence, for the initial
// payload sent when a live session opens.
func (s *Session) Questions() []model.QuestionForStudent {
	out := make([]model.QuestionForStudent, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.ForStudent()
	}
	return out
}

// UserID returns the owning user.
func (s *Session) UserID() int {
	return s.userID
}

// Token returns the one-time submission token issued at session start.
func (s *Session) Token() string {
	return s.token
}

// QuestionRemaining returns the time left on the current question's clock,
// floored at zero.
func (s *Session) QuestionRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nonNegative(s.questionDeadline.Sub(s.now()))
}

// ExamRemaining returns the time left on the whole-exam clock, floored at
// zero.
func (s *Session) ExamRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nonNegative(s.examDeadline.Sub(s.now()))
}

// ExamDeadline returns the absolute wall-clock instant when the exam timer
// expires. The transport layer arms a hard timer against it so an idle
// connection is still force-submitted.
func (s *Session) ExamDeadline() time.Time {
	return s.examDeadline
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
