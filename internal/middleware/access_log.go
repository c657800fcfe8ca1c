package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hfiuc/uc-reservation-api/internal/models"
	"github.com/hfiuc/uc-reservation-api/internal/service"
	"github.com/hfiuc/uc-reservation-api/pkg/middleware/requestid"
)

type accessLogStore interface {
	Create(ctx context.Context, entry *models.AccessLog) error
}

// AccessLog persists one row per handled request and bumps the daily request
// counter. Both writes are fire and forget: the response is already on the
// wire when they run, and failures only warrant a log line.
func AccessLog(store accessLogStore, analytics *service.AnalyticsService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := &models.AccessLog{
			RequestID: requestid.Value(c),
			IP:        c.ClientIP(),
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Status:    c.Writer.Status(),
			UserAgent: c.Request.UserAgent(),
			LatencyMS: time.Since(start).Milliseconds(),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Create(ctx, entry); err != nil {
				logger.Warn("persist access log", zap.Error(err))
			}
			analytics.BumpRequests(ctx)
		}()
	}
}
