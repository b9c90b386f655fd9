package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/maia-backend/internal/http/response"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/services"
)

type LinkHandler struct {
	links services.LinkService
}

func NewLinkHandler(links services.LinkService) *LinkHandler {
	return &LinkHandler{links: links}
}

// POST /friend-requests?patient_email=
func (h *LinkHandler) Request(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if _, err := h.links.Request(dbc, c.Query("patient_email")); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "friend request sent"})
}

// POST /friend-requests/:therapist_id/accept
func (h *LinkHandler) Accept(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Param("therapist_id"))
	if err != nil {
		response.RespondAPIError(c, apierr.InvalidRequest("invalid therapist id"))
		return
	}
	if err := h.links.Accept(dbctx.Context{Ctx: c.Request.Context()}, therapistID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "friend request accepted"})
}

// GET /friend-requests?fr_status=
func (h *LinkHandler) List(c *gin.Context) {
	out, err := h.links.List(dbctx.Context{Ctx: c.Request.Context()}, c.Query("fr_status"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}
