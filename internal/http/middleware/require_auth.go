package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"akwaabamarket.com/app/internal/shared/apperr"
)

const (
	CtxKeyUserID    = "user_id"
	CtxKeyUserEmail = "user_email"
	CtxKeyIsAdmin   = "is_admin"
)

// Identity holds the claims this service trusts from the user service's
// tokens. Issuance lives elsewhere; we only verify.
type Identity struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// RequireAuth verifies a Bearer HS256 token and stashes the identity on the
// context.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			Fail(c, apperr.UnauthorizedErr("Authentication required."))
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			Fail(c, apperr.UnauthorizedErr("Invalid token."))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			Fail(c, apperr.UnauthorizedErr("Invalid token."))
			return
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			Fail(c, apperr.UnauthorizedErr("Invalid token."))
			return
		}
		email, _ := claims["email"].(string)
		isAdmin, _ := claims["is_admin"].(bool)

		c.Set(CtxKeyUserID, userID)
		c.Set(CtxKeyUserEmail, email)
		c.Set(CtxKeyIsAdmin, isAdmin)

		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok || !id.IsAdmin {
			Fail(c, apperr.ForbiddenErr("Admin access required."))
			return
		}
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) (Identity, bool) {
	uid, ok := c.Get(CtxKeyUserID)
	if !ok {
		return Identity{}, false
	}
	id := Identity{}
	id.UserID, _ = uid.(string)
	if v, ok := c.Get(CtxKeyUserEmail); ok {
		id.Email, _ = v.(string)
	}
	if v, ok := c.Get(CtxKeyIsAdmin); ok {
		id.IsAdmin, _ = v.(bool)
	}
	return id, id.UserID != ""
}
