// FILE: internal/controller/plan_controller.go
package controller

import (
	"captionchecker-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPlanController interface {
	RegisterPublicRoutes(r fiber.Router)
	RegisterProtectedRoutes(r fiber.Router)
	GetPlans(ctx *fiber.Ctx) error
	GetUsage(ctx *fiber.Ctx) error
}

type planController struct {
	service service.IPlanService
}

func NewPlanController(planService service.IPlanService) IPlanController {
	return &planController{service: planService}
}

func (c *planController) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/plans", c.GetPlans)
}

func (c *planController) RegisterProtectedRoutes(r fiber.Router) {
	r.Get("/usage", c.GetUsage)
}

func (c *planController) GetPlans(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.GetPlans(ctx.Context()))
}

func (c *planController) GetUsage(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)

	usage, err := c.service.GetUsageStatus(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(usage)
}
