// FILE: internal/controller/payment_controller.go
package controller

import (
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/pkg/serverutils"
	"captionchecker-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPaymentController interface {
	RegisterProtectedRoutes(r fiber.Router)
	RegisterPublicRoutes(r fiber.Router)
	Checkout(ctx *fiber.Ctx) error
	UpdatePlan(ctx *fiber.Ctx) error
	Notification(ctx *fiber.Ctx) error
}

type paymentController struct {
	service service.IPaymentService
}

func NewPaymentController(paymentService service.IPaymentService) IPaymentController {
	return &paymentController{service: paymentService}
}

func (c *paymentController) RegisterProtectedRoutes(r fiber.Router) {
	h := r.Group("/payment")
	h.Post("/checkout", c.Checkout)
	h.Post("/update-plan", c.UpdatePlan)
}

// RegisterPublicRoutes holds the gateway webhook; it authenticates with a
// signature, not a session.
func (c *paymentController) RegisterPublicRoutes(r fiber.Router) {
	r.Post("/payment/notification", c.Notification)
}

func (c *paymentController) Checkout(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)

	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return err
	}

	res, err := c.service.Checkout(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *paymentController) UpdatePlan(ctx *fiber.Ctx) error {
	var req dto.UpdatePlanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	// The caller can only upgrade their own account.
	userId := ctx.Locals("user_id").(uuid.UUID)
	req.UserId = userId.String()

	if err := serverutils.ValidateStruct(&req); err != nil {
		return err
	}

	if err := c.service.UpdatePlan(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"message": "plan updated"})
}

func (c *paymentController) Notification(ctx *fiber.Ctx) error {
	var req dto.PaymentWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := c.service.HandleNotification(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"message": "ok"})
}
