package handler

import (
	"github.com/gin-gonic/gin"

	"classhub/backend/internal/api/middleware"
	"classhub/backend/internal/service"
	"classhub/backend/pkg/jwt"
	"classhub/backend/pkg/response"
)

// MustGetPrincipal extracts the caller injected by JWTAuth.
// On failure a 401 is written; callers return when ok is false.
func MustGetPrincipal(c *gin.Context) (service.Principal, bool) {
	userID := c.GetString(middleware.CtxUserID)
	role := c.GetString(middleware.CtxRole)
	if userID == "" || role == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return service.Principal{}, false
	}
	return service.Principal{UserID: userID, Role: role}, true
}

// MustGetClaims the verified access token claims
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.CtxClaims)
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "not authenticated")
		return nil, false
	}
	return claims, true
}
