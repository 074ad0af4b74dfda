package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/certprep/certprep-backend/internal/config"
	"github.com/certprep/certprep-backend/internal/exam"
	"github.com/certprep/certprep-backend/internal/model"
	"github.com/certprep/certprep-backend/internal/repository"
	"github.com/certprep/certprep-backend/internal/response"
)

// submissionTokenTTL keeps the one-time submission token alive for the whole
// exam window plus slack for a slow final submit.
const submissionTokenTTL = exam.ExamDuration + 10*time.Minute

// StartTestResponse carries everything a client needs to run a session:
// the resolved identity, the one-time submission token and the sampled
// question sequence with correct answers stripped.
type StartTestResponse struct {
	UserID       int                        `json:"userId"`
	Fullname     string                     `json:"fullname"`
	SessionToken string                     `json:"sessionToken"`
	Questions    []model.QuestionForStudent `json:"questions"`
}

// PerformanceReport aggregates a student's history for the dashboard view.
type PerformanceReport struct {
	UserID            int                            `json:"userId"`
	Fullname          string                         `json:"fullname"`
	TotalTests        int                            `json:"totalTests"`
	AverageScore      string                         `json:"averageScore"`
	Results           []model.TestResult             `json:"results"`
	DomainPerformance []repository.DomainPerformance `json:"domainPerformance"`
	Feedback          []model.Feedback               `json:"feedback"`
	NeedsReassessment bool                           `json:"needsReassessment"`
}

// ResultDetail is a scored attempt plus its per-question review rows.
type ResultDetail struct {
	Result   model.TestResult     `json:"result"`
	Fullname string               `json:"fullname"`
	Answers  []model.AnswerReview `json:"answers"`
}

// TestService runs the practice-test lifecycle: start, submit, review.
type TestService struct {
	userRepo     *repository.UserRepository
	questionRepo *repository.QuestionRepository
	resultRepo   *repository.ResultRepository
	perfRepo     *repository.PerformanceRepository
	feedbackRepo *repository.FeedbackRepository
	redisClient  *redis.Client
}

// NewTestService creates a new TestService.
func NewTestService(
	userRepo *repository.UserRepository,
	questionRepo *repository.QuestionRepository,
	resultRepo *repository.ResultRepository,
	perfRepo *repository.PerformanceRepository,
	feedbackRepo *repository.FeedbackRepository,
	redisClient *redis.Client,
) *TestService {
	return &TestService{
		userRepo:     userRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		perfRepo:     perfRepo,
		feedbackRepo: feedbackRepo,
		redisClient:  redisClient,
	}
}

// resolveUser maps a start request to an account. A positive id wins;
// otherwise the fullname is resolved get-or-create as a guest.
func (s *TestService) resolveUser(ctx context.Context, req model.StartTestRequest) (*model.User, error) {
	if req.UserID > 0 {
		user, err := s.userRepo.GetByID(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("get user: %w", err)
		}
		return user, nil
	}
	if req.Fullname == "" {
		return nil, ErrIdentityRequired
	}
	user, err := s.userRepo.GetOrCreateByName(ctx, req.Fullname)
	if err != nil {
		return nil, fmt.Errorf("resolve guest: %w", err)
	}
	return user, nil
}

// StartTest begins a stateless (HTTP-driven) session: it resolves the taker,
// samples a fresh question set and parks a one-time submission token in
// Redis. The token is consumed on submit, so a duplicate submit of the same
// session is rejected instead of producing a second result row.
func (s *TestService) StartTest(ctx context.Context, req model.StartTestRequest) (*StartTestResponse, error) {
	user, err := s.resolveUser(ctx, req)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.Sample(ctx, exam.QuestionsPerSession)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}

	session, err := exam.New(user.ID, questions, nil)
	if err != nil {
		return nil, err
	}
	if err := s.parkSubmissionToken(ctx, session.Token()); err != nil {
		return nil, err
	}

	forStudent := make([]model.QuestionForStudent, 0, len(questions))
	for _, q := range questions {
		forStudent = append(forStudent, q.ForStudent())
	}

	log.Info().
		Int("user_id", user.ID).
		Int("questions", len(questions)).
		Msg("test session started")

	return &StartTestResponse{
		UserID:       user.ID,
		Fullname:     user.Fullname,
		SessionToken: session.Token(),
		Questions:    forStudent,
	}, nil
}

// StartSession begins a server-driven (WebSocket) session. The returned
// Session holds the live state machine; its token is parked the same way as
// the HTTP flow so CommitSession can enforce exactly-once persistence.
func (s *TestService) StartSession(ctx context.Context, req model.StartTestRequest) (*exam.Session, *model.User, error) {
	user, err := s.resolveUser(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	questions, err := s.questionRepo.Sample(ctx, exam.QuestionsPerSession)
	if err != nil {
		return nil, nil, fmt.Errorf("sample questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, nil, ErrEmptyBank
	}

	session, err := exam.New(user.ID, questions, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := s.parkSubmissionToken(ctx, session.Token()); err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *TestService) parkSubmissionToken(ctx context.Context, token string) error {
	key := config.CacheKey.SubmissionTokenKey(token)
	if err := s.redisClient.Set(ctx, key, "1", submissionTokenTTL).Err(); err != nil {
		return fmt.Errorf("park submission token: %w", err)
	}
	return nil
}

// consumeSubmissionToken atomically claims the token. The GETDEL round trip
// is the idempotency gate: the first submit wins, any replay sees a missing
// key and is rejected. When persistence fails after the claim the token is
// put back so the retry is not mistaken for a replay.
func (s *TestService) consumeSubmissionToken(ctx context.Context, token string) error {
	key := config.CacheKey.SubmissionTokenKey(token)
	if err := s.redisClient.GetDel(ctx, key).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrDuplicateSubmission
		}
		return fmt.Errorf("consume submission token: %w", err)
	}
	return nil
}

// restoreSubmissionToken re-parks a consumed token after a failed persist.
// Best effort: the result row does not exist, so an unrestorable token only
// costs the client its retry, never a duplicate result.
func (s *TestService) restoreSubmissionToken(ctx context.Context, token string) {
	if err := s.parkSubmissionToken(ctx, token); err != nil {
		log.Error().Err(err).Str("session_token", token).Msg("failed to restore submission token")
	}
}

// SubmitTest scores and persists a client-driven attempt. When the request
// carries a session token it is consumed first; results and their answer
// rows land in one transaction.
func (s *TestService) SubmitTest(ctx context.Context, req model.SubmitTestRequest) (*model.SubmitTestResponse, error) {
	if req.SessionToken != "" {
		if err := s.consumeSubmissionToken(ctx, req.SessionToken); err != nil {
			return nil, err
		}
	}

	answers := make(map[int]model.OptionKey, len(req.Answers))
	for _, a := range req.Answers {
		if !model.ValidOptionKey(a.UserAnswer) {
			continue
		}
		answers[a.QuestionID] = a.UserAnswer
	}

	questionIDs := req.QuestionIDs
	if len(questionIDs) == 0 {
		questionIDs = make([]int, 0, len(answers))
		for _, a := range req.Answers {
			if _, ok := answers[a.QuestionID]; ok {
				questionIDs = append(questionIDs, a.QuestionID)
			}
		}
	}

	resp, err := s.scoreAndPersist(ctx, req.UserID, questionIDs, answers, req.TimeTaken)
	if err != nil && req.SessionToken != "" {
		s.restoreSubmissionToken(ctx, req.SessionToken)
	}
	return resp, err
}

// CommitSession persists a server-driven session's final submission. A
// failed persist hands the token back so the caller may retry the commit.
func (s *TestService) CommitSession(ctx context.Context, sub exam.Submission, questionIDs []int) (*model.SubmitTestResponse, error) {
	if err := s.consumeSubmissionToken(ctx, sub.Token); err != nil {
		return nil, err
	}
	resp, err := s.scoreAndPersist(ctx, sub.UserID, questionIDs, sub.Answers, int(sub.Elapsed.Seconds()))
	if err != nil {
		s.restoreSubmissionToken(ctx, sub.Token)
	}
	return resp, err
}

func (s *TestService) scoreAndPersist(ctx context.Context, userID int, questionIDs []int, answers map[int]model.OptionKey, timeTaken int) (*model.SubmitTestResponse, error) {
	correct, err := s.questionRepo.CorrectAnswers(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("load correct answers: %w", err)
	}

	card := ScoreAnswers(questionIDs, answers, correct, exam.QuestionsPerSession)

	result := &model.TestResult{
		UserID:         userID,
		Score:          card.Score,
		TotalQuestions: card.TotalQuestions,
		Percentage:     card.Percentage,
		TimeTaken:      timeTaken,
	}
	if err := s.resultRepo.CreateWithAnswers(ctx, result, card.Answers); err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}

	log.Info().
		Int("user_id", userID).
		Int("result_id", result.ID).
		Int("score", card.Score).
		Float64("percentage", card.Percentage).
		Msg("test submitted")

	return &model.SubmitTestResponse{
		TestResultID:   result.ID,
		Score:          card.Score,
		TotalQuestions: card.TotalQuestions,
		Percentage:     fmt.Sprintf("%.2f", card.Percentage),
		RawPercentage:  card.Percentage,
	}, nil
}

// GetResult loads one scored attempt with its review rows.
func (s *TestService) GetResult(ctx context.Context, resultID int) (*ResultDetail, error) {
	result, fullname, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	answers, err := s.resultRepo.ListAnswers(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return &ResultDetail{Result: *result, Fullname: fullname, Answers: answers}, nil
}

// GetPerformance builds the student dashboard: history, per-domain accuracy,
// feedback and the latest reassessment flag.
func (s *TestService) GetPerformance(ctx context.Context, userID int) (*PerformanceReport, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	results, err := s.resultRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	domains, err := s.perfRepo.DomainPerformance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("domain performance: %w", err)
	}
	feedback, err := s.feedbackRepo.ListByStudent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	needsReassessment, err := s.feedbackRepo.LatestReassessmentFlag(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reassessment flag: %w", err)
	}

	var sum float64
	for _, r := range results {
		sum += r.Percentage
	}
	avg := "0.00"
	if len(results) > 0 {
		avg = fmt.Sprintf("%.2f", sum/float64(len(results)))
	}

	return &PerformanceReport{
		UserID:            user.ID,
		Fullname:          user.Fullname,
		TotalTests:        len(results),
		AverageScore:      avg,
		Results:           results,
		DomainPerformance: domains,
		Feedback:          feedback,
		NeedsReassessment: needsReassessment,
	}, nil
}

// ListStudents returns one roster page: student accounts with their attempt
// stats and current reassessment flag, optionally filtered by fullname.
func (s *TestService) ListStudents(ctx context.Context, search string, page, perPage int) ([]repository.StudentStats, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	students, total, err := s.perfRepo.ListStudents(ctx, search, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list students: %w", err)
	}
	if students == nil {
		students = []repository.StudentStats{}
	}

	return students, response.NewPagination(page, perPage, total), nil
}

// GetPerformanceByIdentity resolves a dashboard request by user id or
// fullname. Unlike the start-test flow this never creates a user: asking
// about an unknown name is a not-found, not a registration.
func (s *TestService) GetPerformanceByIdentity(ctx context.Context, req model.StartTestRequest) (*PerformanceReport, error) {
	if req.UserID > 0 {
		return s.GetPerformance(ctx, req.UserID)
	}
	if req.Fullname == "" {
		return nil, ErrIdentityRequired
	}
	user, err := s.userRepo.GetByName(ctx, req.Fullname)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by name: %w", err)
	}
	return s.GetPerformance(ctx, user.ID)
}
