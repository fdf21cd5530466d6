// FILE: internal/controller/auth_controller.go
package controller

import (
	"time"

	"captionchecker-be/internal/config"
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/pkg/serverutils"
	"captionchecker-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Signup(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	ConfirmEmail(ctx *fiber.Ctx) error
	ResendConfirmEmail(ctx *fiber.Ctx) error
	ForgotPassword(ctx *fiber.Ctx) error
	ResetPassword(ctx *fiber.Ctx) error
}

type authController struct {
	service    service.IAuthService
	sessionTTL time.Duration
	secure     bool
}

func NewAuthController(authService service.IAuthService, authCfg config.AuthConfig, appCfg config.AppConfig) IAuthController {
	return &authController{
		service:    authService,
		sessionTTL: authCfg.SessionTTL,
		secure:     appCfg.Environment == "production",
	}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/signup", c.Signup)
	h.Post("/login", c.Login)
	h.Post("/logout", c.Logout)
	h.Post("/confirm-email", c.ConfirmEmail)
	h.Post("/resend-confirm-email", c.ResendConfirmEmail)
	h.Post("/forgot-password", c.ForgotPassword)
	h.Post("/reset-password", c.ResetPassword)
}

func (c *authController) setSessionCookie(ctx *fiber.Ctx, token string) {
	ctx.Cookie(&fiber.Cookie{
		Name:     serverutils.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(c.sessionTTL),
		HTTPOnly: true,
		Secure:   c.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func (c *authController) Signup(ctx *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return err
	}

	res, err := c.service.Signup(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "account created, please check your email to verify",
		"user":    res,
	})
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.Context(), &req)
	if err != nil {
		return err
	}

	c.setSessionCookie(ctx, res.AccessToken)
	return ctx.JSON(res)
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     serverutils.SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   c.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return ctx.JSON(fiber.Map{"message": "logged out"})
}

func (c *authController) ConfirmEmail(ctx *fiber.Ctx) error {
	var req dto.ConfirmEmailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	// Links arrive as GET-style query params from the mail client too.
	if req.Token == "" {
		req.Token = ctx.Query("token")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return err
	}

	alreadyVerified, err := c.service.ConfirmEmail(ctx.Context(), &req)
	if err != nil {
		return err
	}
	if alreadyVerified {
		return ctx.JSON(fiber.Map{"message": "email is already verified"})
	}
	return ctx.JSON(fiber.Map{"message": "email verified"})
}

func (c *authController) ResendConfirmEmail(ctx *fiber.Ctx) error {
	var req dto.ResendConfirmEmailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return err
	}

	alreadyVerified, err := c.service.ResendConfirmEmail(ctx.Context(), &req)
	if err != nil {
		return err
	}
	if alreadyVerified {
		return ctx.JSON(fiber.Map{"message": "email is already verified"})
	}
	return ctx.JSON(fiber.Map{"message": "verification email sent"})
}

func (c *authController) ForgotPassword(ctx *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return err
	}

	if err := c.service.ForgotPassword(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"message": "reset email sent"})
}

func (c *authController) ResetPassword(ctx *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return err
	}

	if err := c.service.ResetPassword(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"message": "password updated, please login"})
}
