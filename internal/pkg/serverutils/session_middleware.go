package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	SessionHeader    = "X-Session-Id"
	sessionLocalsKey = "session_id"
	maxSessionIdLen  = 128
)

// SessionMiddleware requires the anonymous session id header. There is no
// authentication; the id only groups a browser's outfits.
func SessionMiddleware(ctx *fiber.Ctx) error {
	sessionId := utils.CopyString(strings.TrimSpace(ctx.Get(SessionHeader)))
	if sessionId == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, "Missing session id"))
	}
	if len(sessionId) > maxSessionIdLen {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, "Invalid session id"))
	}

	ctx.Locals(sessionLocalsKey, sessionId)
	return ctx.Next()
}

func SessionID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(sessionLocalsKey).(string)
	return id
}
