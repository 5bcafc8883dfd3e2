package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courierhub-platform/internal/domain/shared"
)

const (
	// ActorIDHeader carries the authenticated user id set by the upstream
	// auth layer
	ActorIDHeader = "X-Actor-ID"

	// ActorRoleHeader carries the authenticated role set by the upstream
	// auth layer
	ActorRoleHeader = "X-Actor-Role"

	// ActorKey is the key used to store the actor in the context
	ActorKey = "actor"
)

// ActorContext attaches the caller's identity to the request context.
// Authentication itself happens upstream on the hosted platform; the gateway
// trusts the identity headers that layer sets. Requests without both headers
// proceed anonymously and are stopped later by RequireRole where it applies.
func ActorContext(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(ActorIDHeader)
		rawRole := c.GetHeader(ActorRoleHeader)

		if id != "" && rawRole != "" {
			role, err := shared.ParseRole(rawRole)
			if err != nil {
				logger.Warn("Dropping unrecognized actor role header",
					"actor_id", id,
					"actor_role", rawRole,
					"path", c.Request.URL.Path,
				)
			} else {
				c.Set(ActorKey, shared.Actor{ID: id, Role: role})
			}
		}

		c.Next()
	}
}

// GetActor retrieves the actor from the gin context if present
func GetActor(c *gin.Context) (shared.Actor, bool) {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(shared.Actor); ok {
			return actor, true
		}
	}
	return shared.Actor{}, false
}

// RequireRole rejects requests whose actor does not hold one of the given
// roles: 401 without any actor, 403 with the wrong role.
func RequireRole(roles ...shared.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Actor identity required")
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Insufficient role for this operation")
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(status, response)
}
