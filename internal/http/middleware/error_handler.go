package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

// ErrorHandler перехватывает panic и ошибки, оставленные в c.Errors без ответа.
// Внутренние детали клиенту не передаются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Log.WithFields(logrus.Fields{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"stack":  string(debug.Stack()),
				}).Errorf("http: panic: %v", rec)
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
						Success: false,
						Error:   &response.ErrorInfo{Code: string(apperror.ErrCodeInternal), Message: "внутренняя ошибка сервера"},
					})
				}
			}
		}()

		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}

// RequestLogger пишет одну строку на запрос.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		entry := logger.Log.WithFields(logrus.Fields{
			"status": c.Writer.Status(),
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"ip":     c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("http: запрос завершён с ошибкой")
			return
		}
		entry.Debug("http: запрос")
	}
}
