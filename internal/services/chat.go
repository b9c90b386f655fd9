package services

import (
	"context"
	"errors"
	"io"

	"github.com/yungbote/maia-backend/internal/observability"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/assistant"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
	"github.com/yungbote/maia-backend/internal/policy"
)

const (
	EventContent = "content"
	EventError   = "error"
	EventDone    = "done"
)

// ChatEvent is one item of a chat stream. Every stream ends with exactly one
// EventDone, preceded by at most one EventError.
type ChatEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

type ChatService interface {
	// Stream sends content on the caller's thread and relays the reply. The
	// channel is closed after the done event or when dbc.Ctx is cancelled.
	Stream(dbc dbctx.Context, content string) <-chan ChatEvent
	History(dbc dbctx.Context) ([]*ThreadMessage, error)
}

type chatService struct {
	log       *logger.Logger
	assistant assistant.Client
	guardian  GuardianService
	metrics   *observability.Metrics
}

func NewChatService(
	baseLog *logger.Logger,
	client assistant.Client,
	guardian GuardianService,
	metrics *observability.Metrics,
) ChatService {
	return &chatService{
		log:       baseLog.With("service", "ChatService"),
		assistant: client,
		guardian:  guardian,
		metrics:   metrics,
	}
}

func (s *chatService) Stream(dbc dbctx.Context, content string) <-chan ChatEvent {
	out := make(chan ChatEvent)
	ctx := dbc.Ctx
	go func() {
		defer close(out)
		emit := func(ev ChatEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		err := s.run(ctx, content, emit)
		switch {
		case err == nil:
			s.metrics.ChatStream("done")
		case ctx.Err() != nil:
			s.metrics.ChatStream("cancelled")
			s.log.Info("chat stream cancelled by client")
			return
		default:
			s.metrics.ChatStream("error")
			s.log.Warn("chat stream failed", "error", err)
			if !emit(ChatEvent{Type: EventError, Message: apierr.From(err).Error()}) {
				return
			}
		}
		emit(ChatEvent{Type: EventDone})
	}()
	return out
}

// run drives START -> STREAMING -> (TOOL_PENDING -> STREAMING)* -> DONE.
func (s *chatService) run(ctx context.Context, content string, emit func(ChatEvent) bool) error {
	caller, err := policy.CallerFrom(ctx)
	if err != nil {
		return err
	}
	if err := policy.CanMessage(caller); err != nil {
		return err
	}

	stream, err := s.assistant.StreamMessage(ctx, caller.ThreadID, content, assistant.MemoryAuto)
	if err != nil {
		s.metrics.AssistantError("stream_message")
		return chatServiceError(err)
	}
	for stream != nil {
		next, err := s.drain(ctx, caller, stream, emit)
		_ = stream.Close()
		if err != nil {
			return err
		}
		stream = next
	}
	return nil
}

// drain relays content until the stream completes or asks for tool outputs.
// In the latter case the outputs are submitted and the follow-up stream is
// returned for the caller to continue draining.
func (s *chatService) drain(ctx context.Context, caller policy.Caller, stream assistant.Stream, emit func(ChatEvent) bool) (assistant.Stream, error) {
	for {
		chunk, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.metrics.AssistantError("stream_read")
			return nil, chatServiceError(err)
		}

		switch chunk.Type {
		case assistant.ChunkContent:
			if chunk.Content == "" {
				continue
			}
			if !emit(ChatEvent{Type: EventContent, Content: chunk.Content}) {
				return nil, ctx.Err()
			}
		case assistant.ChunkMessageComplete:
			return nil, nil
		case assistant.ChunkError:
			s.metrics.AssistantError("stream_chunk")
			return nil, chatServiceError(errors.New(chunk.Error))
		case assistant.ChunkToolSubmitRequired:
			outputs, err := s.guardian.HandleToolCalls(ctx, caller.UserID, chunk.ToolCalls)
			if err != nil {
				return nil, err
			}
			next, err := s.assistant.SubmitToolOutputs(ctx, caller.ThreadID, chunk.RunID, outputs)
			if err != nil {
				s.metrics.AssistantError("submit_tool_outputs")
				return nil, chatServiceError(err)
			}
			return next, nil
		default:
			s.log.Debug("ignoring stream chunk", "type", chunk.Type)
		}
	}
}

func (s *chatService) History(dbc dbctx.Context) ([]*ThreadMessage, error) {
	caller, err := policy.CallerFrom(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if err := policy.CanMessage(caller); err != nil {
		return nil, err
	}
	thread, err := s.assistant.GetThread(dbc.Ctx, caller.ThreadID)
	if err != nil {
		s.metrics.AssistantError("get_thread")
		return nil, chatServiceError(err)
	}
	return toThreadMessages(thread.Messages), nil
}
