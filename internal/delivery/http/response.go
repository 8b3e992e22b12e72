package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aliskhannn/examprep/internal/apperr"
)

type apiError struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

// statusOf maps an error code to its HTTP status.
func statusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict:
		return http.StatusConflict
	case apperr.CodePartialBatch:
		return http.StatusMultiStatus
	case apperr.CodeBatchFailed:
		return http.StatusUnprocessableEntity
	case apperr.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	msg := "internal error"
	var ae *apperr.Error
	if errors.As(err, &ae) && code != apperr.CodeStore {
		msg = ae.Error()
	}
	if code == apperr.CodeStore {
		msg = "storage unavailable"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusOf(code), errorEnvelope{
		Error: apiError{Code: code, Message: msg},
	})
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, apperr.Validation("decode request", msg))
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
