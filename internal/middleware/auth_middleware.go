package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/academia/internal/pkg/auth"
	"github.com/yigit/academia/internal/pkg/logger"
)

// Context keys set by AuthMiddleware
const (
	ContextClaims  = "claims"
	ContextSubject = "subject"

	// AccessTokenCookie is read before the Authorization header
	AccessTokenCookie = "access_token"
)

// AuthMiddleware decorates requests with the caller's identity
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// JWTPassthrough reads the access token from the access_token cookie or the
// Authorization header and, when it verifies, stores its claims on the
// context. Missing or invalid tokens leave the request anonymous; the
// middleware never aborts.
func (m *AuthMiddleware) JWTPassthrough() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(AccessTokenCookie)
		if err != nil || tokenString == "" {
			tokenString, err = auth.ExtractBearerToken(c.GetHeader("Authorization"))
			if err != nil {
				c.Next()
				return
			}
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Ignoring invalid access token")
			c.Next()
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextSubject, claims.Subject)
		c.Next()
	}
}

// ClaimsFromContext returns the verified claims, if any.
func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
