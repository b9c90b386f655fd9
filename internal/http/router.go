package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/maia-backend/internal/http/handlers"
	httpMW "github.com/yungbote/maia-backend/internal/http/middleware"
	"github.com/yungbote/maia-backend/internal/observability"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    string
	AuthMiddleware *httpMW.AuthMiddleware

	// Chat rate limiting; disabled when ChatLimiter is nil.
	ChatLimiter     httpMW.WindowCounter
	ChatLimit       int
	ChatLimitWindow time.Duration

	AuthHandler      *httpH.AuthHandler
	ChatHandler      *httpH.ChatHandler
	TherapistHandler *httpH.TherapistHandler
	LinkHandler      *httpH.LinkHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		r.POST("/auth/token", cfg.AuthHandler.Login)
		r.POST("/auth/signup", cfg.AuthHandler.Signup)
	}

	protected := r.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
		}

		// Chat
		if cfg.ChatHandler != nil {
			limit := httpMW.ChatRateLimit(cfg.Log, cfg.ChatLimiter, cfg.ChatLimit, cfg.ChatLimitWindow, cfg.Metrics)
			protected.POST("/chats/messages/stream", limit, cfg.ChatHandler.StreamMessage)
			protected.GET("/chats/messages", cfg.ChatHandler.History)
		}

		// Therapist workspace
		if cfg.TherapistHandler != nil {
			th := protected.Group("/therapists")
			th.GET("/patients", cfg.TherapistHandler.ListPatients)
			th.GET("/patients/:patient_id", cfg.TherapistHandler.GetPatient)
			th.POST("/patients/:patient_id/reports", cfg.TherapistHandler.GenerateReport)
			th.GET("/patients/:patient_id/reports", cfg.TherapistHandler.ListReports)
			th.GET("/patients/:patient_id/reports/:report_id", cfg.TherapistHandler.GetReport)
			th.GET("/alerts", cfg.TherapistHandler.ListAlerts)
			th.GET("/patients/:patient_id/alerts", cfg.TherapistHandler.ListPatientAlerts)
			th.POST("/patients/:patient_id/notes", cfg.TherapistHandler.UploadNote)
			th.GET("/patients/:patient_id/notes", cfg.TherapistHandler.ListNotes)
		}

		// Links
		if cfg.LinkHandler != nil {
			protected.POST("/friend-requests", cfg.LinkHandler.Request)
			protected.POST("/friend-requests/:therapist_id/accept", cfg.LinkHandler.Accept)
			protected.GET("/friend-requests", cfg.LinkHandler.List)
		}
	}

	return r
}
