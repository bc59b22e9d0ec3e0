package user

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nomadiclabs/tripway/config"
	"github.com/nomadiclabs/tripway/storage"
)

const tokenTTL = 24 * time.Hour

// IssueToken signs a stateless access token for the user.
func IssueToken(u *User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"role":    string(u.Role),
		"exp":     time.Now().Add(tokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.C.JWTSecret))
}

// TokenClaims returns the verified claims stored by the auth middleware.
func TokenClaims(c fiber.Ctx) jwt.MapClaims {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return jwt.MapClaims{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return jwt.MapClaims{}
	}
	return claims
}

// TokenUserID extracts the authenticated user id from the request token.
func TokenUserID(c fiber.Ctx) uint {
	if id, ok := TokenClaims(c)["user_id"].(float64); ok {
		return uint(id)
	}
	return 0
}

// TokenRole extracts the role claim from the request token.
func TokenRole(c fiber.Ctx) Role {
	if r, ok := TokenClaims(c)["role"].(string); ok {
		return Role(r)
	}
	return ""
}

// Current resolves the authenticated user from the store.
func Current(c fiber.Ctx) (*User, error) {
	id := TokenUserID(c)
	if id == 0 {
		return nil, errors.New("no authenticated user")
	}

	var u User
	if result := storage.DB.First(&u, id); result.Error != nil {
		return nil, result.Error
	}
	return &u, nil
}
