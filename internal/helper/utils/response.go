package utils

import (
	"github.com/SundayYogurt/rote_service/internal/apperror"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Envelope is the body of every API response. Code is 0 on success and the HTTP
// status otherwise.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(Envelope{
		Code:    status,
		Message: msg,
		Data:    nil,
	})
}

// ResponseAppError maps an error onto its status and envelope. Internal errors are
// logged and replaced by a generic message.
func ResponseAppError(ctx *fiber.Ctx, err error) error {
	kind := apperror.KindOf(err)
	status := apperror.Status(kind)
	if status >= fiber.StatusInternalServerError {
		log.Errorw("request failed",
			"method", ctx.Method(),
			"path", ctx.Path(),
			"kind", kind,
			"error", err,
		)
	}
	return ResponseError(ctx, status, apperror.PublicMessage(err))
}

// create a generic response function for success
func ResponseSuccess(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(Envelope{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}
