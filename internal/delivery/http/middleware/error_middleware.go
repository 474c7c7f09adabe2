package middleware

import (
	"errors"
	"net/http"

	"merchandiser-backend/internal/delivery/http/response"
	"merchandiser-backend/pkg/apperror"
	"merchandiser-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("Request failed",
					"kind", appErr.Kind, "error", appErr.Err, "path", c.FullPath(), "request_id", requestID(c))
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Details)
			return
		}

		// Internal details stay in the log; the client gets a generic message.
		logger.Log.Error("Internal Server Error", "error", err, "path", c.FullPath(), "request_id", requestID(c))
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
