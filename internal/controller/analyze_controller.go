// FILE: internal/controller/analyze_controller.go
package controller

import (
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/pkg/serverutils"
	"captionchecker-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAnalyzeController interface {
	RegisterRoutes(r fiber.Router)
	AnalyzeCaption(ctx *fiber.Ctx) error
	AnalyzeImage(ctx *fiber.Ctx) error
}

type analyzeController struct {
	service service.IAnalyzeService
}

func NewAnalyzeController(analyzeService service.IAnalyzeService) IAnalyzeController {
	return &analyzeController{service: analyzeService}
}

func (c *analyzeController) RegisterRoutes(r fiber.Router) {
	r.Post("/analyze", c.AnalyzeCaption)
	r.Post("/analyze-image", c.AnalyzeImage)
}

func (c *analyzeController) AnalyzeCaption(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)

	var req dto.AnalyzeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return err
	}

	res, err := c.service.AnalyzeCaption(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *analyzeController) AnalyzeImage(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(uuid.UUID)

	var req dto.AnalyzeImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateStruct(&req); err != nil {
		return err
	}

	res, err := c.service.AnalyzeImage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
