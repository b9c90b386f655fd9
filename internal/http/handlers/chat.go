package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/maia-backend/internal/http/response"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
	"github.com/yungbote/maia-backend/internal/services"
)

const heartbeatInterval = 15 * time.Second

type ChatHandler struct {
	log  *logger.Logger
	chat services.ChatService
}

func NewChatHandler(log *logger.Logger, chat services.ChatService) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), chat: chat}
}

type sendMessageReq struct {
	Content string `json:"content"`
}

// POST /chats/messages/stream
func (h *ChatHandler) StreamMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.InvalidRequest("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.RespondAPIError(c, apierr.InvalidRequest("content is required"))
		return
	}
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx := c.Request.Context()
	events := h.chat.Stream(dbctx.Context{Ctx: ctx}, req.Content)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("chat client disconnected", "error", ctx.Err())
			// Drain so the producer goroutine observes cancellation and exits.
			for range events {
			}
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			w.Flush()
		case ev, ok := <-events:
			if !ok {
				_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
				w.Flush()
				return
			}
			if ev.Type == services.EventDone {
				continue
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				h.log.Warn("failed to marshal chat event", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", raw)
			w.Flush()
		}
	}
}

// GET /chats/messages
func (h *ChatHandler) History(c *gin.Context) {
	msgs, err := h.chat.History(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}
