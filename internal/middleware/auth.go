package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"foodcost/internal/auth"
)

func AuthMiddleware(secret []byte, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format, use 'Bearer <token>'"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(secret, parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token: " + err.Error()})
			c.Abort()
			return
		}

		log.Debug("authenticated request",
			zap.String("user_id", claims.UserID),
			zap.String("org_id", claims.OrganizationID),
			zap.Strings("outlet_ids", claims.OutletIDs),
			zap.String("role", claims.Role),
		)

		// Attach caller scope to request context
		c.Set("userID", claims.UserID)
		c.Set("orgID", claims.OrganizationID)
		c.Set("outletIDs", claims.OutletIDs)
		c.Set("userRole", claims.Role)
		c.Next()
	}
}
