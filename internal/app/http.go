package app

import (
	"time"

	"github.com/yungbote/maia-backend/internal/http"
	httpH "github.com/yungbote/maia-backend/internal/http/handlers"
	httpMW "github.com/yungbote/maia-backend/internal/http/middleware"
	"github.com/yungbote/maia-backend/internal/observability"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	Chat      *httpH.ChatHandler
	Therapist *httpH.TherapistHandler
	Link      *httpH.LinkHandler
}

func wireHandlers(log *logger.Logger, services Services, pinger httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(pinger),
		Auth:      httpH.NewAuthHandler(services.Auth),
		Chat:      httpH.NewChatHandler(log, services.Chat),
		Therapist: httpH.NewTherapistHandler(services.Therapist, services.Reports),
		Link:      httpH.NewLinkHandler(services.Links),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, clients Clients, metrics *observability.Metrics) *http.Server {
	rc := http.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		ServiceName:      serviceName,
		CORSOrigins:      cfg.CORSOrigins,
		AuthMiddleware:   middleware.Auth,
		ChatLimit:        cfg.ChatRateLimitPerMinute,
		ChatLimitWindow:  time.Minute,
		AuthHandler:      handlers.Auth,
		ChatHandler:      handlers.Chat,
		TherapistHandler: handlers.Therapist,
		LinkHandler:      handlers.Link,
		HealthHandler:    handlers.Health,
	}
	if clients.Limiter != nil {
		rc.ChatLimiter = clients.Limiter
	}
	return http.NewServer(rc)
}
