package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-batch/internal/middleware"
	"github.com/noah-isme/sma-report-batch/internal/models"
	"github.com/noah-isme/sma-report-batch/internal/service"
	appErrors "github.com/noah-isme/sma-report-batch/pkg/errors"
)

type workspaceProvider interface {
	Get(userID string) *service.Workspace
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// workspaceFor resolves the workspace of the authenticated caller.
func workspaceFor(c *gin.Context, workspaces workspaceProvider) (*service.Workspace, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	return workspaces.Get(claims.UserID), nil
}
