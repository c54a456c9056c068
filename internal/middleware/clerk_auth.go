package middleware

import (
	"context"
	"strings"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gofiber/fiber/v3"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/utils"
)

// TokenVerifier resolves a bearer token into the caller's user id
type TokenVerifier func(ctx context.Context, token string) (string, error)

// ClerkVerifier verifies session tokens against Clerk with the given secret key
func ClerkVerifier(secretKey string) TokenVerifier {
	clerk.SetKey(secretKey)
	return func(ctx context.Context, token string) (string, error) {
		claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}
}

// ClerkAuth validates Clerk JWT tokens
func ClerkAuth(secretKey string) fiber.Handler {
	if secretKey == "" {
		return func(c fiber.Ctx) error {
			return utils.NewUnauthorizedError("Server misconfiguration: CLERK_SECRET_KEY not set")
		}
	}
	return Auth(ClerkVerifier(secretKey))
}

// Auth requires a bearer token accepted by verify and stores the subject as user_id
func Auth(verify TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return utils.NewUnauthorizedError("Missing authorization token")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || token == "" {
			return utils.NewUnauthorizedError("Invalid authorization header format")
		}

		userID, err := verify(c.Context(), token)
		if err != nil || userID == "" {
			return utils.NewUnauthorizedError("Invalid or expired token")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

// UserID returns the subject stored by Auth
func UserID(c fiber.Ctx) (string, bool) {
	id, ok := c.Locals("user_id").(string)
	return id, ok && id != ""
}
