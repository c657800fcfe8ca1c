package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hfiuc/uc-reservation-api/internal/models"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
	"github.com/hfiuc/uc-reservation-api/pkg/middleware/requestid"
	"github.com/hfiuc/uc-reservation-api/pkg/response"
)

type errorLogStore interface {
	CreateError(ctx context.Context, entry *models.ErrorLog) error
}

// Recovery converts panics into an opaque 500 carrying the request id, so
// clients get a support handle while internals stay out of the response.
// The panic detail is persisted for correlation.
func Recovery(store errorLogStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			reqID := requestid.Value(c)
			stack := string(debug.Stack())
			logger.Error("panic recovered",
				zap.String("request_id", reqID),
				zap.Any("panic", r),
				zap.String("stack", stack))

			entry := &models.ErrorLog{
				RequestID: reqID,
				Message:   fmt.Sprintf("%v", r),
				Stack:     stack,
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := store.CreateError(ctx, entry); err != nil {
					logger.Warn("persist error log", zap.Error(err))
				}
			}()

			response.Error(c, appErrors.Opaque(fmt.Errorf("%v", r), reqID))
			c.Abort()
		}()
		c.Next()
	}
}
