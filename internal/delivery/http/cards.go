package http

import (
	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/examprep/internal/domain/entities"
	"github.com/aliskhannn/examprep/internal/service"
)

type createCardsRequest struct {
	Paper       string   `json:"paper"`
	QuestionIDs []string `json:"question_ids"`
}

type seedRequest struct {
	Paper string `json:"paper"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

// ListCards handles GET /cards.
func (h *Handler) ListCards(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	withContent, ok := queryBool(c, "include_content")
	if !ok {
		return
	}

	views, err := h.cards.ListForReview(c.Request.Context(), ownerFrom(c), service.ListCardsInput{
		Paper:          c.Query("paper"),
		Subject:        c.Query("subject"),
		DueState:       entities.DueState(c.Query("due")),
		Limit:          limit,
		IncludeContent: withContent,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"cards": views, "count": len(views)})
}

// GetCard handles GET /cards/:id.
func (h *Handler) GetCard(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.cards.Get(c.Request.Context(), ownerFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

// CreateCards handles POST /cards.
func (h *Handler) CreateCards(c *gin.Context) {
	var req createCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed body: "+err.Error())
		return
	}

	res, err := h.cards.CreateFromQuestions(c.Request.Context(), ownerFrom(c), req.Paper, req.QuestionIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

// SeedCards handles POST /cards/seed.
func (h *Handler) SeedCards(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed body: "+err.Error())
		return
	}

	res, err := h.cards.SeedFromWeakAreas(c.Request.Context(), ownerFrom(c), req.Paper)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

// ResetCards handles POST /cards/reset.
func (h *Handler) ResetCards(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed body: "+err.Error())
		return
	}
	ids, ok := parseIDs(c, req.IDs)
	if !ok {
		return
	}

	res, err := h.cards.Reset(c.Request.Context(), ownerFrom(c), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

// DeleteCards handles DELETE /cards.
func (h *Handler) DeleteCards(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed body: "+err.Error())
		return
	}
	ids, ok := parseIDs(c, req.IDs)
	if !ok {
		return
	}

	deleted, err := h.cards.Delete(c.Request.Context(), ownerFrom(c), ids)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": deleted})
}
