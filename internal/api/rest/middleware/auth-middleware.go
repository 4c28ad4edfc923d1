package middleware

import (
	"strings"

	"github.com/SundayYogurt/rote_service/internal/helper"
	"github.com/SundayYogurt/rote_service/internal/helper/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func AuthMiddleware(auth helper.Auth) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		// 1) try cookie first
		tokenStr := strings.TrimSpace(ctx.Cookies("access_token"))

		// 2) fallback to Authorization header
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(ctx.Get("Authorization"))
		}

		user, err := auth.VerifyToken(tokenStr)
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
		}

		ctx.Locals("userID", user.UserID)
		ctx.Locals("user", user)
		return ctx.Next()
	}
}

// CurrentUserID returns the id AuthMiddleware stored for this request.
func CurrentUserID(ctx *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := ctx.Locals("userID").(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
