package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/maia-backend/internal/http/response"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/ctxutil"
	"github.com/yungbote/maia-backend/internal/platform/logger"
	"github.com/yungbote/maia-backend/internal/services"
)

type fakeAuth struct {
	services.AuthService
	userID uuid.UUID
}

func (f *fakeAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	if token != "good" {
		return ctx, apierr.Unauthorized("could not validate credentials")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: f.userID, Role: "patient"}), nil
}

type fakeCounter struct {
	hits map[string]int64
	err  error
}

func (f *fakeCounter) Hit(ctx context.Context, subject string, window time.Duration) (int64, time.Duration, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.hits[subject]++
	return f.hits[subject], 30 * time.Second, nil
}

func newAuthedEngine(auth services.AuthService, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	am := NewAuthMiddleware(logger.Nop(), auth)
	handlers := append([]gin.HandlerFunc{am.RequireAuth()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, rd.UserID.String())
	})
	r.GET("/private", handlers...)
	return r
}

func TestRequireAuth(t *testing.T) {
	uid := uuid.New()
	r := newAuthedEngine(&fakeAuth{userID: uid})

	cases := []struct {
		name   string
		setup  func(*http.Request)
		target string
		status int
	}{
		{"missing", func(*http.Request) {}, "/private", http.StatusUnauthorized},
		{"bad", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, "/private", http.StatusUnauthorized},
		{"header", func(r *http.Request) { r.Header.Set("Authorization", "bearer good") }, "/private", http.StatusOK},
		{"query", func(*http.Request) {}, "/private?token=good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status: want=%d got=%d body=%s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.status == http.StatusOK && rec.Body.String() != uid.String() {
				t.Fatalf("user id not propagated: %s", rec.Body.String())
			}
			if tc.status == http.StatusUnauthorized {
				var env response.ErrorEnvelope
				if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Error.Code != "unauthorized" {
					t.Fatalf("envelope: %v %s", err, rec.Body.String())
				}
			}
		})
	}
}

func TestChatRateLimit(t *testing.T) {
	counter := &fakeCounter{hits: map[string]int64{}}
	r := newAuthedEngine(&fakeAuth{userID: uuid.New()}, ChatRateLimit(logger.Nop(), counter, 2, time.Minute, nil))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/private?token=good", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if i == 2 && rec.Header().Get("Retry-After") != "31" {
			t.Fatalf("retry-after: %q", rec.Header().Get("Retry-After"))
		}
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes: %v", codes)
	}
}

func TestChatRateLimitFailsOpen(t *testing.T) {
	counter := &fakeCounter{hits: map[string]int64{}, err: errors.New("redis down")}
	r := newAuthedEngine(&fakeAuth{userID: uuid.New()}, ChatRateLimit(logger.Nop(), counter, 1, time.Minute, nil))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private?token=good", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
}

func TestAttachTraceContextEchoesIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		td := ctxutil.GetTraceData(c.Request.Context())
		c.String(http.StatusOK, td.RequestID)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Body.String() != "req-123" || rec.Header().Get("X-Request-Id") != "req-123" {
		t.Fatalf("request id not propagated: %q", rec.Body.String())
	}
	if rec.Header().Get("X-Trace-Id") == "" {
		t.Fatalf("trace id missing")
	}
}

func TestRequireAuthMarksCallerOnTraceData(t *testing.T) {
	gin.SetMode(gin.TestMode)
	id := uuid.New()
	am := NewAuthMiddleware(logger.Nop(), &fakeAuth{userID: id})

	var td *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext(), am.RequireAuth())
	r.GET("/x", func(c *gin.Context) {
		td = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x?token=good", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	if td == nil || td.UserID != id.String() || td.Role != "patient" {
		t.Fatalf("caller not recorded on trace data: %+v", td)
	}
}
