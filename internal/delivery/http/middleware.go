package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/examprep/internal/apperr"
)

const (
	ownerKey       = "owner_id"
	maxOwnerLength = 128
)

// AuthConfig controls owner resolution. With a JWT secret the owner is the
// token subject; without one the owner header is trusted.
type AuthConfig struct {
	JWTSecret   string
	OwnerHeader string
}

// RequireOwner resolves the owner of a request or aborts with 401.
func RequireOwner(cfg AuthConfig) gin.HandlerFunc {
	header := cfg.OwnerHeader
	if header == "" {
		header = "X-Owner-ID"
	}

	return func(c *gin.Context) {
		var (
			owner string
			err   error
		)
		if cfg.JWTSecret != "" {
			owner, err = ownerFromToken(bearerToken(c), cfg.JWTSecret)
		} else {
			owner = strings.TrimSpace(c.GetHeader(header))
			if owner == "" {
				err = errors.New("missing " + header + " header")
			}
		}
		if err == nil && len(owner) > maxOwnerLength {
			err = errors.New("owner id too long")
		}
		if err != nil {
			respondError(c, apperr.Unauthorized(err.Error()))
			return
		}

		c.Set(ownerKey, owner)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func ownerFromToken(tokenString, secret string) (string, error) {
	if tokenString == "" {
		return "", errors.New("missing or invalid token")
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token has no subject")
	}

	return claims.Subject, nil
}

func ownerFrom(c *gin.Context) string {
	return c.GetString(ownerKey)
}

// RequestLogger logs every request once it has been served.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		}
		if owner := ownerFrom(c); owner != "" {
			fields = append(fields, zap.String("owner_id", owner))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}

		switch {
		case status >= 500:
			logger.Error("http request", fields...)
		case status >= 400:
			logger.Warn("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	}
}

// CORS allows the given origins; "*" allows any.
func CORS(origins []string, ownerHeader string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if ownerHeader != "" {
		cfg.AllowHeaders = append(cfg.AllowHeaders, ownerHeader)
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
