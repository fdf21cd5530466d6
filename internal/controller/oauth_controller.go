// FILE: internal/controller/oauth_controller.go
package controller

import (
	"time"

	"captionchecker-be/internal/config"
	"captionchecker-be/internal/pkg/serverutils"
	"captionchecker-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service    service.IOAuthService
	sessionTTL time.Duration
	clientURL  string
	secure     bool
}

func NewOAuthController(oauthService service.IOAuthService, authCfg config.AuthConfig, appCfg config.AppConfig) IOAuthController {
	return &oauthController{
		service:    oauthService,
		sessionTTL: authCfg.SessionTTL,
		clientURL:  appCfg.ClientURL,
		secure:     appCfg.Environment == "production",
	}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth/:provider")
	h.Get("/login", c.Login)
	h.Get("/callback", c.Callback)
}

func (c *oauthController) Login(ctx *fiber.Ctx) error {
	url, err := c.service.GetLoginURL(ctx.Params("provider"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.Redirect(url, fiber.StatusTemporaryRedirect)
}

// Callback lands here from the provider's consent screen. On success the
// browser is sent back to the app with the session cookie already set, so
// federated and password logins end in the same place.
func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	res, err := c.service.HandleCallback(
		ctx.Context(),
		ctx.Params("provider"),
		ctx.Query("state"),
		ctx.Query("code"),
	)
	if err != nil {
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     serverutils.SessionCookieName,
		Value:    res.AccessToken,
		Expires:  time.Now().Add(c.sessionTTL),
		HTTPOnly: true,
		Secure:   c.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return ctx.Redirect(c.clientURL+"/checker", fiber.StatusFound)
}
