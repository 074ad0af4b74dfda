package handler

import (
	"errors"
	"testing"

	"github.com/certprep/certprep-backend/internal/exam"
	"github.com/certprep/certprep-backend/internal/model"
)

func bankQuestions(n int) []model.Question {
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = model.Question{
			ID:            i + 1,
			QuestionText:  "q",
			CorrectAnswer: model.OptionA,
			Domain:        "Networking",
		}
	}
	return questions
}

func TestCompleteSubmitRetriesAfterFailedCommit(t *testing.T) {
	session, err := exam.New(7, bankQuestions(3), nil)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if !session.Answer(model.OptionB) {
		t.Fatal("answer rejected")
	}

	live := &liveSession{session: session}

	commits := 0
	var submissions []exam.Submission
	commit := func(sub exam.Submission, questionIDs []int) (*model.SubmitTestResponse, error) {
		commits++
		submissions = append(submissions, sub)
		if commits == 1 {
			return nil, errors.New("connection refused")
		}
		return &model.SubmitTestResponse{TestResultID: 42}, nil
	}

	// First attempt: persistence fails, the error surfaces, nothing settles.
	if _, err := live.completeSubmit(commit); err == nil {
		t.Fatal("expected commit failure to surface")
	}

	// Retry carries the identical submission instead of a replay rejection.
	result, err := live.completeSubmit(commit)
	if err != nil {
		t.Fatalf("retry after failed commit: %v", err)
	}
	if result.TestResultID != 42 {
		t.Fatalf("unexpected result id %d", result.TestResultID)
	}
	if commits != 2 {
		t.Fatalf("expected 2 commit attempts, got %d", commits)
	}
	if submissions[0].Token != submissions[1].Token {
		t.Fatalf("retry changed the session token: %q vs %q",
			submissions[0].Token, submissions[1].Token)
	}
	if len(submissions[1].Answers) != 1 || submissions[1].Answers[1] != model.OptionB {
		t.Fatalf("retry lost collected answers: %v", submissions[1].Answers)
	}

	// Settled sessions stay settled; the commit is never re-run.
	if _, err := live.completeSubmit(commit); !errors.Is(err, exam.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted after settle, got %v", err)
	}
	if commits != 2 {
		t.Fatalf("settled session re-ran commit, %d attempts", commits)
	}
}

func TestCompleteSubmitFinalizesStateMachineOnce(t *testing.T) {
	session, err := exam.New(7, bankQuestions(2), nil)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	live := &liveSession{session: session}

	failing := func(exam.Submission, []int) (*model.SubmitTestResponse, error) {
		return nil, errors.New("deadline exceeded")
	}
	if _, err := live.completeSubmit(failing); err == nil {
		t.Fatal("expected commit failure to surface")
	}

	// The state machine finalized on the first attempt; a direct second
	// Submit must refuse, while the gate still allows the retry.
	if _, err := session.Submit(); !errors.Is(err, exam.ErrAlreadySubmitted) {
		t.Fatalf("expected finalized state machine, got %v", err)
	}
	succeeding := func(exam.Submission, []int) (*model.SubmitTestResponse, error) {
		return &model.SubmitTestResponse{TestResultID: 1}, nil
	}
	if _, err := live.completeSubmit(succeeding); err != nil {
		t.Fatalf("retry blocked by finalized state machine: %v", err)
	}
}
