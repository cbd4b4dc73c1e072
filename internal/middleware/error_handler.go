package middleware

import (
	"errors"
	"net/http"
	"time"

	"hersis/internal/apierror"
	"hersis/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorHandler turns the last error attached with c.Error into the JSON
// envelope: NotFound 404, Conflict 409, InvalidArgument 422,
// InsufficientStock 409 with the stock detail, anything else 500.
// Internal errors are logged with full context and never shown to clients.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var msg string
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}

		switch apperror.KindOf(err) {
		case apperror.KindNotFound:
			c.AbortWithStatusJSON(http.StatusNotFound, apierror.New(msg))
		case apperror.KindConflict:
			c.AbortWithStatusJSON(http.StatusConflict, apierror.New(msg))
		case apperror.KindInvalidArgument:
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, apierror.New(msg))
		case apperror.KindInsufficientStock:
			detail, _ := apperror.Stock(err)
			c.AbortWithStatusJSON(http.StatusConflict, apierror.NewDetailed(msg, apperror.KindInsufficientStock.String(), detail))
		default:
			log.Error().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Err(err).
				Msg("unhandled error")
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
		}
	}
}

// Recovery handles panics and converts them into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("panic", r).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
			}
		}()
		c.Next()
	}
}

// Logger logs each request with method, path, status, latency, and request_id.
// 5xx are logged at error level, 4xx at warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
