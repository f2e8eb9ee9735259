package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// GenerateToken issues the JWT returned by /login and /signup. The
// account email travels in the subject claim.
func GenerateToken(email string) (string, error) {
	claims := jwt.MapClaims{
		"sub": email,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

func parseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	email, err := claims.GetSubject()
	if err != nil || email == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return email, nil
}

func bearerToken(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	if !strings.HasPrefix(raw, "Bearer ") {
		return "", fmt.Errorf("Authorization header must use the Bearer scheme")
	}
	return strings.TrimPrefix(raw, "Bearer "), nil
}

// JWT_decoder extracts the authenticated email from the request's Bearer
// token.
func JWT_decoder(c *gin.Context) (string, error) {
	tokenString, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return "", err
	}
	return parseToken(tokenString)
}

// AuthRequired is a simple middleware to check the Bearer token.
func AuthRequired(c *gin.Context) {
	email, err := JWT_decoder(c)
	if err != nil {
		// Abort the request with the appropriate error code
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set("email", email)
	// Continue down the chain to handler etc
	c.Next()
}

// Socketio_JWT_decoder validates the token a socket.io client sends in
// its handshake auth data.
func Socketio_JWT_decoder(authData map[string]interface{}) (string, error) {
	raw, _ := authData["authorization"].(string)
	tokenString, err := bearerToken(raw)
	if err != nil {
		return "", err
	}
	return parseToken(tokenString)
}
