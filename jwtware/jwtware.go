package jwtware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing or malformed JWT")
	ErrInvalidToken = errors.New("invalid or expired JWT")
)

// SigningKey holds the key and algorithm used to verify tokens.
type SigningKey struct {
	JWTAlg string
	Key    interface{}
}

// Config defines the middleware behaviour.
type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(fiber.Ctx) bool

	// SuccessHandler runs after a token was successfully verified.
	SuccessHandler fiber.Handler

	// ErrorHandler runs when token extraction or verification fails.
	ErrorHandler func(fiber.Ctx, error) error

	SigningKey SigningKey

	// JWKSetURLs enables JWKS based verification via keyfunc.
	JWKSetURLs []string

	// ContextKey is the Locals key the parsed token is stored under.
	// Defaults to "user".
	ContextKey string

	// AuthScheme is the expected Authorization header scheme. Defaults to "Bearer".
	AuthScheme string

	keyFunc jwt.Keyfunc
}

func defaultErrorHandler(c fiber.Ctx, err error) error {
	if errors.Is(err, ErrMissingToken) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "missing or malformed token"})
	}
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
}

// New returns a fiber handler enforcing a valid bearer token.
func New(config ...Config) fiber.Handler {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if len(cfg.JWKSetURLs) > 0 {
		multiple := make(map[string]keyfunc.Options, len(cfg.JWKSetURLs))
		for _, url := range cfg.JWKSetURLs {
			multiple[url] = keyfunc.Options{}
		}
		jwks, err := keyfunc.GetMultiple(multiple, keyfunc.MultipleOptions{})
		if err != nil {
			panic("jwtware: failed to load JWK sets: " + err.Error())
		}
		cfg.keyFunc = jwks.Keyfunc
	} else {
		if cfg.SigningKey.Key == nil {
			panic("jwtware: neither SigningKey nor JWKSetURLs configured")
		}
		alg := cfg.SigningKey.JWTAlg
		key := cfg.SigningKey.Key
		cfg.keyFunc = func(t *jwt.Token) (interface{}, error) {
			if alg != "" && t.Method.Alg() != alg {
				return nil, errors.New("unexpected signing method: " + t.Method.Alg())
			}
			return key, nil
		}
	}

	return func(c fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractToken(c, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		token, err := jwt.Parse(raw, cfg.keyFunc)
		if err != nil || !token.Valid {
			return cfg.ErrorHandler(c, ErrInvalidToken)
		}

		c.Locals(cfg.ContextKey, token)

		if cfg.SuccessHandler != nil {
			return cfg.SuccessHandler(c)
		}
		return c.Next()
	}
}

func extractToken(c fiber.Ctx, scheme string) (string, error) {
	auth := c.Get(fiber.HeaderAuthorization)
	if auth == "" {
		return "", ErrMissingToken
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) || parts[1] == "" {
		return "", ErrMissingToken
	}
	return parts[1], nil
}
