package middleware

import (
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-pages/backend/internal/metrics"
	apperrors "github.com/pageza/recipe-pages/backend/pkg/errors"
)

// ErrorPage writes the HTML error page for err and aborts the chain
func ErrorPage(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err, "")
	status := appErr.StatusCode()
	body := fmt.Sprintf("<h1>%d %s</h1><p>%s</p>", status, appErr.StatusText(), html.EscapeString(appErr.Message))
	c.Data(status, "text/html; charset=utf-8", []byte(body))
	c.Abort()
}

// ErrorHandler renders the last error a handler attached with c.Error
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		fields := []zap.Field{
			zap.String("path", c.Request.URL.Path),
			zap.String("code", string(apperrors.GetCode(err))),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Error(err),
		}
		if apperrors.GetCode(err) == apperrors.CodeInternal {
			logger.Error("Request failed", fields...)
		} else {
			logger.Info("Request rejected", fields...)
		}
		ErrorPage(c, err)
	}
}

// Recovery turns a panic into a 500 page
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				metrics.PanicRecovered()
				logger.Error("Recovered from panic",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(RequestIDKey)),
					zap.Stack("stack"))
				if c.Writer.Written() {
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				ErrorPage(c, apperrors.NewInternalError(""))
			}
		}()
		c.Next()
	}
}
