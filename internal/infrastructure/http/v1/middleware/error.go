package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"erpledger/internal/core/apperror"
	"erpledger/internal/infrastructure/http/v1/dto"
	"erpledger/pkg/logger"
)

// ErrorHandler middleware renders the last handler error as the
// {"error": {...}} envelope. Internal causes are logged, never returned.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			message := appErr.Message
			details := appErr.Details
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				message = "Internal server error"
				details = map[string]any{"request_id": c.GetString("request_id")}
			}
			c.JSON(appErr.HTTPStatus, dto.ErrorEnvelope{Error: dto.ErrorResponse{
				Code:    appErr.Code,
				Message: message,
				Details: details,
			}})
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorEnvelope{Error: dto.ErrorResponse{
			Code:    apperror.CodeInternal,
			Message: "Internal server error",
			Details: map[string]any{"request_id": c.GetString("request_id")},
		}})
	}
}
