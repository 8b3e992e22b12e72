package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/service"
)

// CreateSession handles POST /sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	var req service.CreateSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		if !errors.Is(err, io.EOF) {
			badRequest(c, "malformed body: "+err.Error())
			return
		}
		// An empty body opens a review session.
		req = service.CreateSessionInput{}
	}

	session, err := h.sessions.Create(c.Request.Context(), ownerFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// ListSessions handles GET /sessions.
func (h *Handler) ListSessions(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	list, err := h.sessions.Query(c.Request.Context(), ownerFrom(c), entities.SessionFilter{
		Paper: c.Query("paper"),
		Type:  entities.SessionType(c.Query("type")),
		Limit: limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

// GetSession handles GET /sessions/:id.
func (h *Handler) GetSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	session, err := h.sessions.Get(c.Request.Context(), ownerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, session)
}

// CompleteSession handles PUT /sessions/:id with the final totals.
func (h *Handler) CompleteSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var totals entities.SessionTotals
	if err := c.ShouldBindJSON(&totals); err != nil {
		badRequest(c, "malformed body: "+err.Error())
		return
	}

	session, err := h.sessions.Update(c.Request.Context(), ownerFrom(c), id, totals)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, session)
}

// DeleteSession handles DELETE /sessions/:id.
func (h *Handler) DeleteSession(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), ownerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
