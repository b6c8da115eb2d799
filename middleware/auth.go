package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const customerRefKey = "customerRef"

// Claims is the token payload issued by the identity service. Only the
// customer reference is consumed here; it is trusted as-is.
type Claims struct {
	CustomerRef string `json:"customer_ref"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a given customer reference
func GenerateToken(secret []byte, customerRef string, ttl time.Duration) (string, error) {
	claims := Claims{
		CustomerRef: customerRef,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// AuthRequired validates the bearer token and injects the customer reference
// into the request context. A valid token without a customer reference is
// rejected with 403, matching the identity contract.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or malformed token"})
			c.Abort()
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		if claims.CustomerRef == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid token: customer_ref missing"})
			c.Abort()
			return
		}

		c.Set(customerRefKey, claims.CustomerRef)
		c.Next()
	}
}

// GetCustomerRef extracts the authenticated caller's customer reference
func GetCustomerRef(c *gin.Context) string {
	val, _ := c.Get(customerRefKey)
	ref, _ := val.(string)
	return ref
}
