package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const adminContextKey contextKey = "admin"

const tokenIssuer = "tempocal"

// Config holds admin authentication configuration. The admin API has a single
// operator identity; there is no user store.
type Config struct {
	JWTSecret     string
	AdminPassword string // bcrypt hash, or plain text for local development
	TokenDuration time.Duration
}

// LoadConfigFromEnv loads admin auth config from environment variables.
// Missing values disable nothing; they just mean logins fail until the
// operator sets ADMIN_JWT_SECRET and ADMIN_PASSWORD.
func LoadConfigFromEnv() Config {
	return Config{
		JWTSecret:     os.Getenv("ADMIN_JWT_SECRET"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		TokenDuration: 24 * time.Hour,
	}
}

// Claims represents the JWT claims issued to the admin.
type Claims struct {
	Subject string `json:"sub_name"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed admin token.
func GenerateToken(subject, secret string, duration time.Duration) (string, error) {
	claims := Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken validates a token and returns its subject.
func ValidateToken(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a candidate password against the configured admin
// password. Accepts either a bcrypt hash or, for local development, the plain
// password itself.
func CheckPassword(candidate, configured string) bool {
	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(candidate)) == nil
	}
	return candidate == configured && configured != ""
}

// Middleware validates bearer tokens on admin routes.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			subject, err := ValidateToken(parts[1], cfg.JWTSecret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext extracts the authenticated subject from the request
// context.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(adminContextKey).(string)
	return subject, ok
}
