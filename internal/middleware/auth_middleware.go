package middleware

import (
	"errors"
	"fmt"
	"strings"

	"go-opsportal/internal/rbac"
	"go-opsportal/internal/shared/apperror"
	"go-opsportal/internal/shared/contextutil"
	"go-opsportal/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ContextActorID = "actor_id"

// AuthMiddleware validates the HMAC bearer token (or access_token cookie)
// and stores the actor_id claim on the gin and request contexts.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}
		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			abortWithError(c, apperror.ErrUnauthenticated)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, apperror.ErrTokenExpired)
				return
			}
			abortWithError(c, apperror.ErrInvalidToken)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortWithError(c, apperror.ErrInvalidToken)
			return
		}
		actorID, ok := claims["actor_id"].(string)
		if !ok || actorID == "" {
			abortWithError(c, apperror.ErrInvalidToken)
			return
		}
		if _, err := uuid.Parse(actorID); err != nil {
			abortWithError(c, apperror.ErrInvalidToken)
			return
		}

		c.Set(ContextActorID, actorID)
		c.Request = c.Request.WithContext(contextutil.WithActorID(c.Request.Context(), actorID))
		c.Next()
	}
}

// RoleMiddleware only lets resolved actors with one of the roles through.
func RoleMiddleware(allowedRoles ...rbac.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := rbac.ActorFromContext(c)
		if !ok {
			abortWithError(c, apperror.ErrForbidden)
			return
		}
		for _, role := range allowedRoles {
			if actor.Role == role && actor.IsActive() {
				c.Next()
				return
			}
		}
		abortWithError(c, apperror.ErrUnauthorized)
	}
}

func abortWithError(c *gin.Context, err error) {
	response.FromError(c, err)
	c.Abort()
}
