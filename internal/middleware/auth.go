package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hfiuc/uc-reservation-api/internal/models"
	"github.com/hfiuc/uc-reservation-api/internal/service"
	appErrors "github.com/hfiuc/uc-reservation-api/pkg/errors"
	"github.com/hfiuc/uc-reservation-api/pkg/response"
)

// ContextAdminKey is the gin context key storing the authenticated admin.
const ContextAdminKey = "currentAdmin"

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	// decision links from approver mail carry the token as a query parameter
	return c.Query("token")
}

// Auth protects routes by requiring a valid session or decision-link token.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		admin, _, err := authService.ParseToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, *admin)
		c.Next()
	}
}

// CurrentAdmin returns the admin attached by Auth.
func CurrentAdmin(c *gin.Context) (models.Admin, bool) {
	value, ok := c.Get(ContextAdminKey)
	if !ok {
		return models.Admin{}, false
	}
	admin, ok := value.(models.Admin)
	return admin, ok
}
