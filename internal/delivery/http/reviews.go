package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aliskhannn/examprep/internal/apperr"
	"github.com/aliskhannn/examprep/internal/service"
)

type batchResponse struct {
	*service.BatchResult
	Error *apiError `json:"error,omitempty"`
}

// SubmitReview handles POST /reviews.
func (h *Handler) SubmitReview(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, "unreadable body")
		return
	}
	in, err := decodeReview(body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.reviews.ProcessReview(c.Request.Context(), ownerFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

// SubmitBatch handles POST /reviews/batch. A batch where some items failed,
// including items that could not be decoded, answers 207 with both the
// results and the per-item errors.
func (h *Handler) SubmitBatch(c *gin.Context) {
	var req batchPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed body: "+err.Error())
		return
	}

	var sessionID *uuid.UUID
	if req.SessionID != "" {
		sid, err := uuid.Parse(req.SessionID)
		if err != nil {
			badRequest(c, "session_id must be a UUID")
			return
		}
		sessionID = &sid
	}

	items := make([]service.BatchItem, len(req.Reviews))
	for i, raw := range req.Reviews {
		in, err := decodeReview(raw)
		if err != nil {
			items[i].Rejected = fmt.Errorf("reviews[%d]: %w", i, err)
			continue
		}
		items[i].Review = in
	}

	res, err := h.reviews.ProcessBatchItems(c.Request.Context(), ownerFrom(c), items, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := batchResponse{BatchResult: res}
	status := http.StatusOK
	if err := res.Err(); err != nil {
		code := apperr.CodeOf(err)
		status = statusOf(code)
		out.Error = &apiError{Code: code, Message: err.Error()}
	}
	c.JSON(status, out)
}
