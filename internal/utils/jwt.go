package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// SetJWTSecret sets the signing secret. It must be called once at startup
// before any token is issued or parsed.
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// Claims carried by a devboard session token. Sessions are issued in
// exchange for a valid API key; KeyName identifies that key.
type Claims struct {
	KeyName string `json:"key_name"`
	jwt.RegisteredClaims
}

// GenerateToken issues a session token for the named API key valid for
// ttlHours hours.
func GenerateToken(keyName string, ttlHours int) (string, error) {
	if ttlHours <= 0 {
		ttlHours = 12
	}
	now := time.Now()
	claims := Claims{
		KeyName: keyName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   keyName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
			Issuer:    "devboard",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseToken validates a session token and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
