package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

// UserIDKey 是认证通过后用户 ID 在 gin.Context 中的键
const UserIDKey = "user_id"

// ErrMissingAuthHeader 表示请求中既没有 Authorization 头也没有 token 参数
var ErrMissingAuthHeader = errors.New("missing Authorization header")

// Auth 返回一个 Gin 中间件，用于验证 JWT token。
// 浏览器的 WebSocket 握手无法设置请求头，因此也接受 ?token= 查询参数。
func Auth(jwtSecret string) gin.HandlerFunc {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty for Auth middleware")
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			if errors.Is(err, ErrMissingAuthHeader) {
				logrus.Warn("Auth middleware: Missing Authorization header")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			} else {
				logrus.WithError(err).Warn("Auth middleware: Malformed token format")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			}
			return
		}

		claims, err := validateToken(tokenStr, jwtSecret)
		if err != nil {
			logCtx := logrus.WithError(err)
			logCtx.Warn("Auth middleware: Invalid token")
			var validationError *jwt.ValidationError
			if errors.As(err, &validationError) && validationError.Errors&jwt.ValidationErrorExpired != 0 {
				logCtx.Warn("Reason: Token is expired")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// JWT 数字默认为 float64
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok || userIDFloat <= 0 || userIDFloat != float64(uint(userIDFloat)) {
			logrus.Errorf("Auth middleware: 'user_id' claim is not a valid positive integer: %v", claims["user_id"])
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		userID := uint(userIDFloat)

		c.Set(UserIDKey, userID)
		logrus.WithField("user_id", userID).Debug("Auth middleware: User authenticated via JWT")
		c.Next()
	}
}

// UserID 读取 Auth 中间件写入的用户 ID
func UserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// extractToken 优先读取 "Bearer <token>" 请求头，其次是 token 查询参数
func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if q := c.Query("token"); q != "" {
			return q, nil
		}
		return "", ErrMissingAuthHeader
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", jwt.ErrTokenMalformed
	}
	return parts[1], nil
}

// validateToken 解析并验证 JWT token 字符串，只接受 HMAC 签名
func validateToken(tokenStr string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token or claims type")
}
