package controller

import (
	"errors"

	"library-ai-be/internal/dto"
	"library-ai-be/internal/pkg/serverutils"
	"library-ai-be/internal/service"
	"library-ai-be/pkg/assistant/failure"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	UpdateTitle(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.IChatSessionService
}

func NewSessionController(service service.IChatSessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1/sessions")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Delete("", c.Clear)
	h.Get(":id", c.Show)
	h.Put(":id", c.UpdateTitle)
	h.Delete(":id", c.Delete)
	h.Get(":id/messages", c.Messages)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.Context(), userId, req.Title)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *sessionController) GetAll(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetAllSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all sessions", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	userId, id, err := userAndSessionIds(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetSession(ctx.Context(), userId, id)
	if err != nil {
		return sessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *sessionController) UpdateTitle(ctx *fiber.Ctx) error {
	userId, id, err := userAndSessionIds(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateSessionTitleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateTitle(ctx.Context(), userId, id, req.Title)
	if err != nil {
		return sessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update session", res))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	userId, id, err := userAndSessionIds(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteSession(ctx.Context(), userId, id); err != nil {
		return sessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

func (c *sessionController) Clear(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	if err := c.service.ClearSessions(ctx.Context(), userId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear sessions", nil))
}

func (c *sessionController) Messages(ctx *fiber.Ctx) error {
	userId, id, err := userAndSessionIds(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetMessages(ctx.Context(), userId, id)
	if err != nil {
		return sessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func userIdFrom(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid claims")
	}
	return userId, nil
}

func userAndSessionIds(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, serverutils.NewAppError(fiber.StatusBadRequest, "Invalid session id", err)
	}
	return userId, id, nil
}

func sessionError(err error) error {
	if errors.Is(err, service.ErrSessionNotFound) {
		return serverutils.NewAppError(fiber.StatusNotFound, failure.MessageSession, err)
	}
	return err
}
