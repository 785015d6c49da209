package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dentavia/case-api/pkg/auth"

	"github.com/dentavia/case-api/internal/handler"
	"github.com/dentavia/case-api/internal/model"
)

const ContextIdentity = "identity"

type AuthMiddleware struct {
	tokens *auth.Service
}

func NewAuthMiddleware(tokens *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and sets the request-scoped
// Identity. Nothing downstream reads auth state from anywhere else.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.parseBearer(c)
		if !ok {
			return
		}

		role, err := model.RoleFromString(claims.Role)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		ident := model.Identity{Role: role, CaseRef: claims.CaseRef}
		if role != model.RolePatient {
			subject, err := uuid.Parse(claims.Subject)
			if err != nil {
				c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token subject"))
				c.Abort()
				return
			}
			ident.Subject = subject
		}

		c.Set(ContextIdentity, ident)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allowed set.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			c.Abort()
			return
		}

		for _, role := range roles {
			if ident.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
		c.Abort()
	}
}

// IdentityFromContext returns the authenticated caller identity.
func IdentityFromContext(c *gin.Context) (model.Identity, bool) {
	raw, exists := c.Get(ContextIdentity)
	if !exists {
		return model.Identity{}, false
	}
	ident, ok := raw.(model.Identity)
	return ident, ok
}

func (m *AuthMiddleware) parseBearer(c *gin.Context) (*auth.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
		c.Abort()
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
		c.Abort()
		return nil, false
	}

	claims, err := m.tokens.ValidateToken(parts[1])
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
		c.Abort()
		return nil, false
	}
	return claims, true
}
