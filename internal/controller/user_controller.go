// FILE: internal/controller/user_controller.go
package controller

import (
	"captionchecker-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	GetProfile(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IUserService
}

func NewUserController(userService service.IUserService) IUserController {
	return &userController{service: userService}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	r.Get("/user", c.GetProfile)
}

func (c *userController) GetProfile(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)

	user, err := c.service.GetProfile(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(user)
}
