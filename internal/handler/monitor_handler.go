package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/certprep/certprep-backend/internal/config"
	"github.com/certprep/certprep-backend/internal/middleware"
	ws "github.com/certprep/certprep-backend/internal/websocket"
)

const keepAliveInterval = 30 * time.Second

// MonitorHandler streams live proctoring violations to instructors.
type MonitorHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "monitor_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// InstructorMonitorStream godoc
// WS /ws/v1/instructor/monitor?token=...
// Forwards every published violation to the connected instructor. Events
// arrive from session handlers via Redis Pub/Sub, so the stream works across
// server instances.
func (h *MonitorHandler) InstructorMonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	reqCtx := c.Request.Context()
	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.ViolationChannel())
	defer pubsub.Close()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	h.log.Info().Int("instructor_id", claims.UserID).Msg("Instructor attached to live monitor")

	// Drain client frames so closes are noticed; instructors never send
	// meaningful messages on this stream.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				pubsub.Close()
				return
			}
		}
	}()

	for {
		select {
		case <-reqCtx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			out := ws.ViolationBroadcast{
				Event: ws.EventViolation,
				Data:  json.RawMessage(msg.Payload),
			}
			if err := ws.WriteTyped(conn, out); err != nil {
				return
			}

		case <-keepAliveTicker.C:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		}
	}
}
