package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
	"github.com/noah-isme/studymate-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextActorKey is the gin context key storing the resolved actor.
	ContextActorKey = "currentActor"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// ActorResolver maps claims to the tutor or student behind them.
type ActorResolver interface {
	Resolve(ctx context.Context, claims *models.JWTClaims) (*models.Actor, error)
}

// JWT protects routes by requiring a valid access token. The caller's actor
// is resolved once here and stored for handlers.
func JWT(tokens TokenValidator, actors ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		actor, err := actors.Resolve(c.Request.Context(), claims)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the actor stored by JWT.
func ActorFromContext(c *gin.Context) *models.Actor {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return nil
	}
	actor, _ := value.(*models.Actor)
	return actor
}
