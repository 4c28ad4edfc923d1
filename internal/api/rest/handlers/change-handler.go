package handlers

import (
	"github.com/SundayYogurt/rote_service/internal/api/rest/middleware"
	"github.com/SundayYogurt/rote_service/internal/apperror"
	"github.com/SundayYogurt/rote_service/internal/dto"
	"github.com/SundayYogurt/rote_service/internal/helper"
	"github.com/SundayYogurt/rote_service/internal/helper/utils"
	"github.com/SundayYogurt/rote_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ChangeHandler struct {
	svc  services.ChangeService
	auth helper.Auth
}

func NewChangeHandler(svc services.ChangeService, auth helper.Auth) *ChangeHandler {
	return &ChangeHandler{svc: svc, auth: auth}
}

func (h *ChangeHandler) SetupRoutes(api fiber.Router) {
	changes := api.Group("/changes", middleware.AuthMiddleware(h.auth))

	changes.Get("/origin/:originId", h.ListByOrigin)
	changes.Get("/rote/:roteId", h.ListByNote)
	changes.Get("/user", h.ListByUser)
	// incremental sync
	changes.Get("/after", h.ListAfter)
}

func (h *ChangeHandler) ListByOrigin(ctx *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	var q dto.PageQuery
	if err := ctx.QueryParser(&q); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "skip and limit must be integers")
	}

	out, err := h.svc.ListByOrigin(ctx.UserContext(), userID, ctx.Params("originId"), q)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, out)
}

func (h *ChangeHandler) ListByNote(ctx *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	var q dto.PageQuery
	if err := ctx.QueryParser(&q); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "skip and limit must be integers")
	}

	out, err := h.svc.ListByNote(ctx.UserContext(), userID, ctx.Params("roteId"), q)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, out)
}

func (h *ChangeHandler) ListByUser(ctx *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	var q dto.UserChangesQuery
	if err := ctx.QueryParser(&q); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "skip and limit must be integers")
	}

	out, err := h.svc.ListByUser(ctx.UserContext(), userID, q)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, out)
}

func (h *ChangeHandler) ListAfter(ctx *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}
	var q dto.ChangesAfterQuery
	if err := ctx.QueryParser(&q); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "skip and limit must be integers")
	}
	if q.Timestamp == "" {
		return utils.ResponseAppError(ctx, apperror.Validation("timestamp is required"))
	}

	out, err := h.svc.ListAfter(ctx.UserContext(), userID, q)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, out)
}
