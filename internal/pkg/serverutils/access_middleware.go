// FILE: internal/pkg/serverutils/access_middleware.go
package serverutils

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"captionchecker-be/internal/service"
)

const loginPath = "/auth/login"

// publicPrefixes are reachable without a session: auth pages and flows,
// the plan listing, the payment webhook and static assets.
var publicPrefixes = []string{
	"/auth",
	"/api/auth",
	"/api/plans",
	"/api/payment/notification",
	"/uploads",
	"/health",
}

// protectedPagePrefixes are browser navigations that redirect to login
// instead of answering 401.
var protectedPagePrefixes = []string{
	"/checker",
}

// normalizePath lowercases and strips trailing slashes so the gate cannot
// be bypassed with /Checker or /checker/.
func normalizePath(p string) string {
	p = strings.ToLower(p)
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	if p == "" {
		p = "/"
	}
	return p
}

func hasPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// AccessMiddleware gates protected areas before any handler runs. It only
// decides reachability; quota enforcement happens later inside the action
// handlers.
func AccessMiddleware(tokenService service.ITokenService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		path := normalizePath(ctx.Path())

		if hasPrefix(path, publicPrefixes) {
			return ctx.Next()
		}

		isPage := hasPrefix(path, protectedPagePrefixes)
		isAPI := strings.HasPrefix(path, "/api/")
		if !isPage && !isAPI {
			return ctx.Next()
		}

		tokenStr := sessionToken(ctx)
		if tokenStr != "" {
			if _, err := tokenService.VerifySession(tokenStr); err == nil {
				return ctx.Next()
			}
		}

		if isPage {
			// Preserve the destination so the client can come back after login.
			return ctx.Redirect(loginPath+"?next="+url.QueryEscape(ctx.Path()), fiber.StatusFound)
		}
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized, please login to continue"})
	}
}
