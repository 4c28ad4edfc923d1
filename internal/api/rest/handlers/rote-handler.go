package handlers

import (
	"net/url"

	"github.com/SundayYogurt/rote_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/rote_service/internal/dto"
	"github.com/SundayYogurt/rote_service/internal/helper"
	"github.com/SundayYogurt/rote_service/internal/helper/utils"
	"github.com/SundayYogurt/rote_service/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RoteHandler struct {
	svc  services.RoteService
	auth helper.Auth
}

func NewRoteHandler(svc services.RoteService, auth helper.Auth) *RoteHandler {
	return &RoteHandler{svc: svc, auth: auth}
}

func (h *RoteHandler) SetupRoutes(api fiber.Router) {
	authed := middleware.AuthMiddleware(h.auth)

	rotes := api.Group("/rotes", authed)
	rotes.Post("/", h.CreateRote)
	rotes.Patch("/:roteId", h.UpdateRote)
	rotes.Delete("/:roteId", h.DeleteRote)

	// attachments of a rote
	rotes.Put("/:roteId/attachments", h.BindAttachments)
	rotes.Put("/:roteId/attachments/order", h.ReorderAttachments)
	rotes.Delete("/:roteId/attachments/:attachmentId", h.UnbindAttachment)

	// reactions
	rotes.Post("/:roteId/reactions", h.AddReaction)
	rotes.Delete("/:roteId/reactions/:type", h.RemoveReaction)

	attachments := api.Group("/attachments", authed)
	attachments.Post("/", h.CreateAttachment)
	attachments.Delete("/:attachmentId", h.DeleteAttachment)
}

func (h *RoteHandler) CreateRote(ctx *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	var body dto.CreateRoteRequest
	if err := ctx.BodyParser(&body); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	rote, err := h.svc.CreateRote(ctx.UserContext(), userID, body)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, rote)
}

func (h *RoteHandler) UpdateRote(ctx *fiber.Ctx) error {
	userID, roteID, err := h.userAndRote(ctx)
	if err != nil {
		return err
	}
	var body dto.UpdateRoteRequest
	if err := ctx.BodyParser(&body); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	rote, err := h.svc.UpdateRote(ctx.UserContext(), userID, roteID, body)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, rote)
}

func (h *RoteHandler) DeleteRote(ctx *fiber.Ctx) error {
	userID, roteID, err := h.userAndRote(ctx)
	if err != nil {
		return err
	}

	if err := h.svc.DeleteRote(ctx.UserContext(), userID, roteID); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{"id": roteID})
}

func (h *RoteHandler) BindAttachments(ctx *fiber.Ctx) error {
	userID, roteID, err := h.userAndRote(ctx)
	if err != nil {
		return err
	}
	var body dto.BindAttachmentsRequest
	if err := ctx.BodyParser(&body); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	if err := helper.Validate(body); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	ids, err := helper.ParseUUIDs("attachment id", body.AttachmentIDs)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	out, err := h.svc.BindAttachments(ctx.UserContext(), userID, roteID, ids)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, out)
}

func (h *RoteHandler) ReorderAttachments(ctx *fiber.Ctx) error {
	userID, roteID, err := h.userAndRote(ctx)
	if err != nil {
		return err
	}
	var body dto.ReorderAttachmentsRequest
	if err := ctx.BodyParser(&body); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	if err := helper.Validate(body); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	ids, err := helper.ParseUUIDs("attachment id", body.AttachmentIDs)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	out, err := h.svc.ReorderAttachments(ctx.UserContext(), userID, roteID, ids)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, out)
}

func (h *RoteHandler) UnbindAttachment(ctx *fiber.Ctx) error {
	userID, roteID, err := h.userAndRote(ctx)
	if err != nil {
		return err
	}
	attachmentID, err := helper.ParseUUID("attachment id", ctx.Params("attachmentId"))
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	if err := h.svc.UnbindAttachment(ctx.UserContext(), userID, roteID, attachmentID); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{"id": attachmentID})
}

func (h *RoteHandler) CreateAttachment(ctx *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	var body dto.CreateAttachmentRequest
	if err := ctx.BodyParser(&body); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	att, err := h.svc.CreateAttachment(ctx.UserContext(), userID, body)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, att)
}

func (h *RoteHandler) DeleteAttachment(ctx *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	attachmentID, err := helper.ParseUUID("attachment id", ctx.Params("attachmentId"))
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	if err := h.svc.DeleteAttachment(ctx.UserContext(), userID, attachmentID); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{"id": attachmentID})
}

func (h *RoteHandler) AddReaction(ctx *fiber.Ctx) error {
	userID, roteID, err := h.userAndRote(ctx)
	if err != nil {
		return err
	}
	var body dto.ReactionRequest
	if err := ctx.BodyParser(&body); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	reaction, err := h.svc.AddReaction(ctx.UserContext(), userID, roteID, body)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, reaction)
}

func (h *RoteHandler) RemoveReaction(ctx *fiber.Ctx) error {
	userID, roteID, err := h.userAndRote(ctx)
	if err != nil {
		return err
	}
	reactionType, err := url.PathUnescape(ctx.Params("type"))
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid reaction type")
	}

	if err := h.svc.RemoveReaction(ctx.UserContext(), userID, roteID, reactionType); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{"type": reactionType})
}

// userAndRote resolves the caller and the :roteId param. On failure the response is
// already written and the returned error is what the handler must return.
func (h *RoteHandler) userAndRote(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return uuid.Nil, uuid.Nil, utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	roteID, err := helper.ParseUUID("roteid", ctx.Params("roteId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, utils.ResponseAppError(ctx, err)
	}
	return userID, roteID, nil
}
