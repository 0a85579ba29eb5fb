package controller

import (
	"ppm-intake-be/internal/pkg/serverutils"
	"ppm-intake-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	ClearAllConversations(ctx *fiber.Ctx) error
	ClearConversations(ctx *fiber.Ctx) error
}

type adminController struct {
	service   service.IIntakeService
	jwtSecret string
}

func NewAdminController(service service.IIntakeService, jwtSecret string) IAdminController {
	return &adminController{service: service, jwtSecret: jwtSecret}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret), serverutils.AdminOnly)
	h.Delete("/conversations", c.ClearAllConversations)
	h.Delete("/conversations/:session_id", c.ClearConversations)
}

func (c *adminController) ClearAllConversations(ctx *fiber.Ctx) error {
	if err := c.service.ClearAllConversations(ctx.UserContext()); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear all conversations", nil))
}

func (c *adminController) ClearConversations(ctx *fiber.Ctx) error {
	if err := c.service.ClearConversations(ctx.UserContext(), sessionParam(ctx)); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear conversations", nil))
}
