package middleware

import (
	"net/http"
	"strings"

	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "userId"
	ctxName   = "name"
	ctxAdmin  = "admin"
)

// Claims is the identity the ledger trusts. Tokens are issued elsewhere.
type Claims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Admin  bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization header required",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid || claims.UserID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxName, claims.Name)
		c.Set(ctxAdmin, claims.Admin)
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{
				"message": "Administrator access required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// GetOwner returns the authenticated caller as an account holder.
func GetOwner(c *gin.Context) (models.Owner, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return models.Owner{}, false
	}
	return models.Owner{ID: id, FullName: c.GetString(ctxName)}, true
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxAdmin)
}
