package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studymate-api/internal/middleware"
	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
	"github.com/noah-isme/studymate-api/pkg/response"
)

// actorFromContext returns the resolved caller or writes 401 and returns nil.
func actorFromContext(c *gin.Context) *models.Actor {
	actor := middleware.ActorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return actor
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
