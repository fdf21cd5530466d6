// FILE: internal/pkg/serverutils/session_middleware.go
package serverutils

import (
	"github.com/gofiber/fiber/v2"

	"captionchecker-be/internal/service"
)

const SessionCookieName = "access_token"

// sessionToken extracts the session token from the auth cookie or a
// Bearer header. Cookie wins: it is what the app itself sets.
func sessionToken(ctx *fiber.Ctx) string {
	if cookie := ctx.Cookies(SessionCookieName); cookie != "" {
		return cookie
	}
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// SessionMiddleware authenticates protected API routes. Missing, malformed
// and expired tokens all produce the same 401; handlers read the identity
// from ctx locals and re-fetch durable state themselves.
func SessionMiddleware(tokenService service.ITokenService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := sessionToken(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized, please login to continue"})
		}

		claims, err := tokenService.VerifySession(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized, please login to continue"})
		}

		ctx.Locals("user_id", claims.UserId)
		ctx.Locals("email", claims.Email)
		return ctx.Next()
	}
}
