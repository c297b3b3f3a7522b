package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/apperrors"
)

const UserContextKey = "userID"

// ParseToken validates an HMAC signed JWT and returns its claims
func ParseToken(tokenStr string, secret []byte) (jwt.MapClaims, error) {
	if len(secret) == 0 {
		return nil, errors.New("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// AuthMiddleware requires "Authorization: Bearer <jwt>" and stores the
// token's user_id claim for GetUserID.
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(tokenStr) == "" {
			apperrors.Respond(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := ParseToken(strings.TrimSpace(tokenStr), key)
		if err != nil {
			apperrors.Respond(c, apperrors.ErrUnauthorized.Wrap(err))
			return
		}
		userID, _ := claims["user_id"].(string)
		if userID == "" {
			apperrors.Respond(c, apperrors.ErrUnauthorized.Wrap(errors.New("token has no user_id")))
			return
		}

		c.Set(UserContextKey, userID)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("user ID not found in context")
}
