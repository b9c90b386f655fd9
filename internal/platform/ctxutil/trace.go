package ctxutil

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type traceDataKey struct{}

// TraceData identifies one HTTP request across logs, spans and responses.
// UserID and Role are filled in once the caller is authenticated.
type TraceData struct {
	TraceID   string
	RequestID string
	UserID    string
	Role      string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// MarkCaller copies the authenticated caller onto the request's trace data
// and tags the active span with it.
func MarkCaller(ctx context.Context, rd *RequestData) {
	if rd == nil {
		return
	}
	userID := rd.UserID.String()
	if td := GetTraceData(ctx); td != nil {
		td.UserID = userID
		td.Role = rd.Role
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("enduser.id", userID),
		attribute.String("enduser.role", rd.Role),
	)
}
