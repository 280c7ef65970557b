package web

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/BerylCAtieno/ad-creative-agent/internal/config"
	"github.com/BerylCAtieno/ad-creative-agent/internal/logger"
)

const maxLoggedBody = 2048

// RequestLogger logs every request once it has been served. JSON bodies are
// logged at debug level.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if logger.Log.IsLevelEnabled(logrus.DebugLevel) && c.Request.Body != nil &&
			strings.HasPrefix(c.ContentType(), "application/json") {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err != nil {
				logger.Log.Warnf("failed to read request body: %v", err)
				abortBodyError(c, err)
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			if len(bodyBytes) > maxLoggedBody {
				bodyBytes = bodyBytes[:maxLoggedBody]
			}
			logger.Log.Debugf("request body %s %s: %s", c.Request.Method, c.Request.URL.Path, bodyBytes)
		}

		c.Next()

		logger.Log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}).Info("request served")
	}
}

// BodyLimit caps the request body at limit bytes. Reads past the limit fail
// with *http.MaxBytesError.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func abortBodyError(c *gin.Context, err error) {
	if bodyTooLarge(err) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
}

// NewLimiter returns nil when the limit is disabled.
func NewLimiter(cfg config.ConcurrencyConfig) *rate.Limiter {
	if cfg.RPM <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(cfg.RPM)/60.0), burst)
}

// RateLimit rejects requests over the limit with 429 instead of queueing them.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			logger.Log.Warnf("rate limit exceeded for %s", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many generation requests, please retry later"})
			return
		}
		c.Next()
	}
}
