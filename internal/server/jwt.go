// internal/server/jwt.go
package server

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markb/bazarbot/internal/store"
)

const accessTokenExpiry = 86400 // 24 hours

// generateAccessToken issues an HS256 token for a Mini App session.
func (s *Server) generateAccessToken(user *store.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"exp":         now.Add(time.Duration(accessTokenExpiry) * time.Second).Unix(),
		"iat":         now.Unix(),
		"iss":         "bazarbot",
		"sub":         fmt.Sprintf("%d", user.ID),
		"telegram_id": user.TelegramID,
		"role":        user.Role,
		"language":    user.Language,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) validateAccessToken(tokenString string) (*jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &claims, nil
}
