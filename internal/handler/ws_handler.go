package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/certprep/certprep-backend/internal/exam"
	"github.com/certprep/certprep-backend/internal/middleware"
	"github.com/certprep/certprep-backend/internal/model"
	"github.com/certprep/certprep-backend/internal/proctor"
	"github.com/certprep/certprep-backend/internal/service"
	ws "github.com/certprep/certprep-backend/internal/websocket"
	"github.com/certprep/certprep-backend/internal/worker"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the live test session stream. It drives the session
// state machine and the proctoring monitor server-side; the client only
// reports events and renders state.
type WSHandler struct {
	rdb         *redis.Client
	testService *service.TestService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, testService *service.TestService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		testService: testService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// liveSession bundles one connection's moving parts. conn writes come from
// the read loop, the exam hard timer and the proctor callbacks, so every
// write goes through send().
type liveSession struct {
	writeMu sync.Mutex
	conn    *websocket.Conn

	session *exam.Session
	monitor *proctor.Monitor

	// lastKind remembers which window event produced the violation the
	// monitor is about to count. Minimize counts synchronously; blur is
	// debounced, so the stored kind may be read from the timer goroutine.
	kindMu   sync.Mutex
	lastKind model.ViolationEvent

	// finishMu serializes finish attempts. submission is captured from the
	// state machine on the first attempt and kept across retries, so a
	// failed persist never loses the collected answers; finished flips only
	// after the result actually landed.
	finishMu   sync.Mutex
	submission *exam.Submission
	finished   bool
}

// completeSubmit runs one finish attempt through commit. The first call
// finalizes the state machine; a commit error leaves the attempt retryable
// with the same submission, and once commit succeeds every further call
// returns exam.ErrAlreadySubmitted.
func (l *liveSession) completeSubmit(commit func(exam.Submission, []int) (*model.SubmitTestResponse, error)) (*model.SubmitTestResponse, error) {
	l.finishMu.Lock()
	defer l.finishMu.Unlock()

	if l.finished {
		return nil, exam.ErrAlreadySubmitted
	}
	if l.submission == nil {
		sub, err := l.session.Submit()
		if err != nil {
			return nil, err
		}
		l.submission = &sub
	}

	result, err := commit(*l.submission, l.session.QuestionIDs())
	if err != nil {
		return nil, err
	}
	l.finished = true
	return result, nil
}

func (l *liveSession) send(v interface{}) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return ws.WriteTyped(l.conn, v)
}

func (l *liveSession) setKind(k model.ViolationEvent) {
	l.kindMu.Lock()
	l.lastKind = k
	l.kindMu.Unlock()
}

func (l *liveSession) kind() model.ViolationEvent {
	l.kindMu.Lock()
	defer l.kindMu.Unlock()
	if l.lastKind == "" {
		return model.ViolationBlur
	}
	return l.lastKind
}

// TestSessionStream godoc
// WS /ws/v1/tests/session?token=...|fullname=...
// Upgrades to WebSocket and runs one complete proctored attempt.
func (h *WSHandler) TestSessionStream(c *gin.Context) {
	var req model.StartTestRequest
	if claims := middleware.GetClaims(c); claims != nil {
		req.UserID = claims.UserID
	} else {
		req.Fullname = c.Query("fullname")
	}

	session, user, err := h.testService.StartSession(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case service.ErrIdentityRequired:
			status = http.StatusBadRequest
		case service.ErrNotFound:
			status = http.StatusNotFound
		case service.ErrEmptyBank:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	live := &liveSession{conn: conn, session: session}

	wsLog := h.log.With().
		Int("user_id", user.ID).
		Str("session_token", session.Token()).
		Logger()

	live.monitor = proctor.New(proctor.Config{},
		func(count, max int, escalated bool) {
			h.recordViolation(live, wsLog, count, max, escalated)
		},
		func() {
			wsLog.Warn().Msg("Proctoring escalation, terminating session")
			h.finish(live, wsLog)
		},
	)
	defer live.monitor.Stop()

	// The exam clock is enforced server-side: when it runs out the session
	// is submitted with whatever answers exist, connected client or not.
	hardStop := time.AfterFunc(session.ExamRemaining(), func() {
		wsLog.Info().Msg("Exam timer expired, forcing submit")
		h.finish(live, wsLog)
	})
	defer hardStop.Stop()

	wsLog.Info().Int("questions", session.Len()).Msg("Live session started")

	live.send(ws.SessionResponse{
		Event:          ws.EventSession,
		UserID:         user.ID,
		Fullname:       user.Fullname,
		SessionToken:   session.Token(),
		Questions:      session.Questions(),
		QuestionTime:   int(exam.QuestionTime.Seconds()),
		ExamDuration:   int(exam.ExamDuration.Seconds()),
		TotalQuestions: session.Len(),
	})
	h.sendState(live)

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			// A freeze or an expired exam makes this a silent no-op; the
			// state snapshot tells the client why nothing changed.
			live.session.Answer(model.OptionKey(msg.Answer))
			h.sendState(live)

		case ws.ActionAdvance:
			switch err := live.session.Advance(); err {
			case nil:
				h.sendState(live)
			case exam.ErrLastQuestion:
				live.send(ws.ErrorResponse{Event: ws.EventError, Error: "already at the last question"})
			case exam.ErrAlreadySubmitted:
				if h.finish(live, wsLog) {
					return
				}
			}

		case ws.ActionSubmit:
			if h.finish(live, wsLog) {
				return
			}

		case ws.ActionViolation:
			h.handleViolation(live, &msg)

		case ws.ActionFocus:
			live.monitor.Focus()

		case ws.ActionDialog:
			live.monitor.DialogOpened()

		case ws.ActionPing:
			live.send(ws.PongResponse{Event: ws.EventPong})

		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			live.send(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)})
		}
	}
}

func (h *WSHandler) handleViolation(live *liveSession, msg *ws.RequestPayload) {
	switch model.ViolationEvent(msg.Kind) {
	case model.ViolationMinimize:
		live.setKind(model.ViolationMinimize)
		live.monitor.Minimize()
	case model.ViolationBlur:
		live.setKind(model.ViolationBlur)
		live.monitor.Blur()
	default:
		live.send(ws.ErrorResponse{Event: ws.EventError, Error: "unknown violation kind: " + msg.Kind})
	}
}

// recordViolation pushes the strike onto the persistence queue, publishes it
// for the instructor monitor and notifies the client.
func (h *WSHandler) recordViolation(live *liveSession, wsLog zerolog.Logger, count, max int, escalated bool) {
	payload := worker.ViolationPayload{
		UserID:       live.session.UserID(),
		SessionToken: live.session.Token(),
		Event:        string(live.kind()),
		WarningCount: count,
		Escalated:    escalated,
		Timestamp:    time.Now().Unix(),
	}
	worker.Enqueue(context.Background(), h.rdb, wsLog, payload)

	event := ws.EventWarning
	if escalated {
		event = ws.EventEscalate
	}
	live.send(ws.WarningResponse{
		Event:        event,
		WarningCount: count,
		MaxWarnings:  max,
		Escalated:    escalated,
	})
}

// finish submits and grades the session. Safe to call from the read loop,
// the hard timer and the escalation callback concurrently; the result is
// persisted at most once. It reports whether the session is settled: false
// means the persist failed and a later submit should retry.
func (h *WSHandler) finish(live *liveSession, wsLog zerolog.Logger) bool {
	result, err := live.completeSubmit(func(sub exam.Submission, questionIDs []int) (*model.SubmitTestResponse, error) {
		return h.testService.CommitSession(context.Background(), sub, questionIDs)
	})
	if err != nil {
		if errors.Is(err, exam.ErrAlreadySubmitted) {
			return true
		}
		if errors.Is(err, service.ErrDuplicateSubmission) {
			live.send(ws.ErrorResponse{Event: ws.EventError, Error: "session already submitted"})
			return true
		}
		wsLog.Error().Err(err).Msg("Commit session failed")
		live.send(ws.ErrorResponse{Event: ws.EventError, Error: "failed to save the result, submit again to retry"})
		return false
	}

	wsLog.Info().Int("result_id", result.TestResultID).Msg("Session graded")
	live.send(ws.GradedResponse{
		Event:          ws.EventGraded,
		TestResultID:   result.TestResultID,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Percentage:     result.Percentage,
	})
	return true
}

func (h *WSHandler) sendState(live *liveSession) {
	_, idx := live.session.Current()
	live.send(ws.StateResponse{
		Event:             ws.EventState,
		QuestionIndex:     idx,
		TotalQuestions:    live.session.Len(),
		Answered:          live.session.AnsweredCount(),
		QuestionRemaining: int(live.session.QuestionRemaining().Seconds()),
		ExamRemaining:     int(live.session.ExamRemaining().Seconds()),
		State:             live.session.State().String(),
	})
}
