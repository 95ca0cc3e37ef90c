package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/learntrack/backend/internal/models"
)

var (
	jwtSecret          = []byte("change-me-in-production")
	jwtExpirationHours = 24
	jwtRememberHours   = 24 * 30
)

type Claims struct {
	UserID string          `json:"userID"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func ConfigureJWT(secret string, expirationHours, rememberHours int) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if expirationHours > 0 {
		jwtExpirationHours = expirationHours
	}
	if rememberHours > 0 {
		jwtRememberHours = rememberHours
	}
}

// GenerateToken issues a session token for the profile. A remembered
// session uses the longer persistent expiry.
func GenerateToken(profile *models.UserProfile, remember bool) (string, time.Time, error) {
	hours := jwtExpirationHours
	if remember {
		hours = jwtRememberHours
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := Claims{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   profile.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}
