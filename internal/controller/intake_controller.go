package controller

import (
	"ppm-intake-be/internal/dto"
	"ppm-intake-be/internal/pkg/serverutils"
	"ppm-intake-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type IIntakeController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	GetCollectedInfo(ctx *fiber.Ctx) error
	GetCompletionStatus(ctx *fiber.Ctx) error
	GetStatus(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	CloseSession(ctx *fiber.Ctx) error
}

type intakeController struct {
	service service.IIntakeService
}

func NewIntakeController(service service.IIntakeService) IIntakeController {
	return &intakeController{service: service}
}

// sessionParam copies the route id out of the request buffer fasthttp reuses
func sessionParam(ctx *fiber.Ctx) string {
	return utils.CopyString(ctx.Params("session_id"))
}

func (c *intakeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/sessions")
	h.Post("", c.CreateSession)
	h.Post(":session_id/messages", c.SendMessage)
	h.Get(":session_id/messages", c.GetHistory)
	h.Get(":session_id/info", c.GetCollectedInfo)
	h.Get(":session_id/completion", c.GetCompletionStatus)
	h.Get(":session_id/status", c.GetStatus)
	h.Post(":session_id/search", c.Search)
	h.Delete(":session_id", c.CloseSession)
}

func (c *intakeController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *intakeController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), sessionParam(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *intakeController) GetHistory(ctx *fiber.Ctx) error {
	var q dto.HistoryQuery
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}

	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	res, err := c.service.GetHistory(ctx.UserContext(), sessionParam(ctx), &q)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get conversation history", res))
}

func (c *intakeController) GetCollectedInfo(ctx *fiber.Ctx) error {
	res, err := c.service.GetCollectedInfo(ctx.UserContext(), sessionParam(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get collected info", res))
}

func (c *intakeController) GetCompletionStatus(ctx *fiber.Ctx) error {
	res, err := c.service.GetCompletionStatus(ctx.UserContext(), sessionParam(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get completion status", res))
}

func (c *intakeController) GetStatus(ctx *fiber.Ctx) error {
	res, err := c.service.GetStatus(ctx.UserContext(), sessionParam(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session status", res))
}

func (c *intakeController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), sessionParam(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search conversations", res))
}

func (c *intakeController) CloseSession(ctx *fiber.Ctx) error {
	if err := c.service.CloseSession(ctx.UserContext(), sessionParam(ctx)); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success close session", nil))
}
