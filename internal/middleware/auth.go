package middleware

import (
	"strings"

	"deskhub/internal/util"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "claims"

// Auth requires a valid bearer token and stores its claims on the context.
func Auth(tokens *util.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header",
			})
		}

		claims, err := tokens.ValidateToken(tokenParts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequireRole lets the request through only when the token's role is one
// of roles. It must run after Auth.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}
		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Administrator access required",
		})
	}
}

// ClaimsFrom returns the claims stored by Auth, or nil when the request was
// not authenticated.
func ClaimsFrom(c *fiber.Ctx) *util.Claims {
	claims, _ := c.Locals(claimsKey).(*util.Claims)
	return claims
}
