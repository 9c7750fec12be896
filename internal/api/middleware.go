package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/casdy/PlanR-sub000/internal/domain"
)

// Constants for context keys
const (
	ContextUserIDKey = "userID"
)

// jwtClaims defines the structure we expect in the JWT payload.
type jwtClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// IdentityMiddleware resolves the caller to a user id. Identity is a
// consumed signal, not an access gate: a valid Bearer token yields its
// user id, anything else (missing header, malformed header, bad or
// expired token) yields the guest sentinel. It never rejects a request.
func IdentityMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserIDKey, resolveUserID(c.GetHeader("Authorization"), jwtSecret))
		c.Next()
	}
}

func resolveUserID(authHeader, jwtSecret string) string {
	if authHeader == "" {
		return domain.GuestUserID
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return domain.GuestUserID
	}

	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return domain.GuestUserID
	}
	return claims.UserID
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) string {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return domain.GuestUserID
	}
	id, ok := idRaw.(string)
	if !ok || id == "" {
		return domain.GuestUserID
	}
	return id
}
