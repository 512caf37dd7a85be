package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"planora/internal/services"
)

const actorKey = "actor"

// AuthMiddleware validates the bearer token and stores the acting user on
// the request context.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}
		claims, err := ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil || claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		c.Set(actorKey, services.Actor{UserID: userID, Role: services.Role(claims.Role)})
		c.Next()
	}
}

// RequireRole rejects requests whose actor has none of the given roles.
func RequireRole(roles ...services.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// CurrentActor returns the actor set by AuthMiddleware.
func CurrentActor(c *gin.Context) services.Actor {
	value, exists := c.Get(actorKey)
	if !exists {
		return services.Actor{}
	}
	actor, _ := value.(services.Actor)
	return actor
}
