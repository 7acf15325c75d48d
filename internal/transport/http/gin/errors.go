package httpgin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/eventix/internal/domain"
)

const internalErrorBody = "internal server error"

func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnprocessable:
		return http.StatusUnprocessableEntity
	case domain.KindTooManyRequests:
		return http.StatusTooManyRequests
	case domain.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// respondErr is the only place where errors become HTTP responses. Typed
// errors send their message; anything else is logged and hidden.
func respondErr(c *gin.Context, logger *slog.Logger, err error) {
	status := statusOf(domain.KindOf(err))

	msg, ok := domain.MessageOf(err)
	if !ok || status == http.StatusInternalServerError {
		reqID, _ := c.Get(requestIDKey)
		logger.Error("request failed",
			slog.Any("request_id", reqID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		_ = c.Error(err)
		msg = internalErrorBody
		status = http.StatusInternalServerError
	}

	c.String(status, msg)
}

func badRequest(c *gin.Context, msg string) {
	c.String(http.StatusBadRequest, msg)
}

func unprocessable(c *gin.Context, msg string) {
	c.String(http.StatusUnprocessableEntity, msg)
}
