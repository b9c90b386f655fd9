package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/maia-backend/internal/http/handlers"
	httpMW "github.com/yungbote/maia-backend/internal/http/middleware"
	"github.com/yungbote/maia-backend/internal/observability"
	"github.com/yungbote/maia-backend/internal/platform/logger"
	"github.com/yungbote/maia-backend/internal/services"
)

type rejectingAuth struct {
	services.AuthService
}

func TestRouterProtectsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	r := NewRouter(RouterConfig{
		Log:              log,
		Metrics:          observability.NewMetrics(),
		AuthMiddleware:   httpMW.NewAuthMiddleware(log, rejectingAuth{}),
		HealthHandler:    httpH.NewHealthHandler(nil),
		TherapistHandler: httpH.NewTherapistHandler(nil, nil),
		LinkHandler:      httpH.NewLinkHandler(nil),
	})

	for _, path := range []string{"/therapists/alerts", "/friend-requests"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: want=401 got=%d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests") {
		t.Fatalf("metrics: %d", rec.Code)
	}
}
