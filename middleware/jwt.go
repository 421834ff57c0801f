package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bachngocs/support-chatbot-be/types"
	"github.com/bachngocs/support-chatbot-be/utils"
)

const AdminContextKey = "admin"

// AdminAuthMiddleware guards the admin API. It expects a Bearer token
// minted by the login handler and puts the parsed claims on the context.
func AdminAuthMiddleware(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
			Status:  false,
			Message: "Authorization header is required",
		})
		return
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
			Status:  false,
			Message: "Authorization header format must be Bearer {token}",
		})
		return
	}

	claims, err := utils.ParseAdminToken(parts[1])
	if err != nil || claims.Role != "admin" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
			Status:  false,
			Message: "Invalid admin token",
		})
		return
	}

	c.Set(AdminContextKey, claims)
	c.Next()
}
