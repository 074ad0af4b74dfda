package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/certprep/certprep-backend/internal/config"
	"github.com/certprep/certprep-backend/internal/handler"
	"github.com/certprep/certprep-backend/internal/middleware"
	"github.com/certprep/certprep-backend/internal/response"
	"github.com/certprep/certprep-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Test       *handler.TestHandler
	Instructor *handler.InstructorHandler
	WS         *handler.WSHandler
	Monitor    *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/setup-instructor", handlers.Auth.SetupInstructor)

		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Tests Group (Public: guests may take practice tests) ──────
	tests := router.Group("/api/v1/tests")
	{
		tests.POST("/start", handlers.Test.StartTest)
		tests.POST("/submit", handlers.Test.SubmitTest)
		tests.GET("/results/:id", handlers.Test.GetResult)
		tests.POST("/performance", handlers.Test.GetPerformance)

		// Assignment listing is shared: students see their own.
		tests.GET("/assignments", middleware.RequireJWT(authService), handlers.Instructor.ListAssignments)
		tests.PUT("/assignments/:id", middleware.RequireJWT(authService), handlers.Instructor.UpdateAssignment)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/tests/session", middleware.OptionalJWT(authService), handlers.WS.TestSessionStream)
		ws.GET("/instructor/monitor", middleware.RequireInstructorWSAuth(authService), handlers.Monitor.InstructorMonitorStream)
	}

	// ─── 4. Instructor Group (JWT + Role Gate) ─────────────────────────
	instructorAPI := router.Group("/api/v1/instructor")
	instructorAPI.Use(middleware.RequireInstructor(authService))
	{
		instructorAPI.GET("/students", handlers.Instructor.ListStudents)
		instructorAPI.GET("/students/:id", handlers.Instructor.GetStudent)

		instructorAPI.POST("/assignments", handlers.Instructor.AssignExam)
		instructorAPI.GET("/assignments", handlers.Instructor.ListAssignments)
		instructorAPI.PUT("/assignments/:id", handlers.Instructor.UpdateAssignment)
		instructorAPI.DELETE("/assignments/:id", handlers.Instructor.DeleteAssignment)

		instructorAPI.POST("/feedback", handlers.Instructor.AddFeedback)
	}

	return router
}
