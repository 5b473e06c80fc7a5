package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/burs-api/internal/middleware"
	"github.com/noah-isme/burs-api/internal/models"
)

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

// currentUserID returns the authenticated user's id, or nil on anonymous
// requests so audit columns stay NULL.
func currentUserID(c *gin.Context) *string {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return nil
	}
	id := claims.UserID
	return &id
}
