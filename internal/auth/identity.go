package auth

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified principal the external provider vouches for.
// Subject is the provider's opaque id; it only maps to a local user row
// after POST /users/sync has run.
type Identity struct {
	Subject string
}

var identitySecret string

func InitIdentitySecret() error {
	identitySecret = os.Getenv("IDENTITY_JWT_SECRET")
	if identitySecret == "" {
		return fmt.Errorf("IDENTITY_JWT_SECRET environment variable is not set")
	}
	return nil
}

// VerifyIdentityToken checks the provider-issued bearer token and extracts
// the subject claim. The application never issues tokens itself.
func VerifyIdentityToken(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(identitySecret), nil
	})

	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	subject, ok := claims["sub"].(string)

	if !ok || subject == "" {
		return Identity{}, fmt.Errorf("missing subject in token claims")
	}

	return Identity{Subject: subject}, nil
}
