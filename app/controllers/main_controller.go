package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trackvote/trackvote/internal/pkg/usercontext"
)

// HandleIndex reports service status and who is logged in
func HandleIndex(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	resp := fiber.Map{
		"service": "trackvote",
		"status":  "ok",
	}
	if userCtx.IsLoggedIn {
		resp["user"] = fiber.Map{
			"id":   userCtx.UserID,
			"name": userCtx.Username,
		}
	}

	return c.JSON(resp)
}

// HandleMe returns the authenticated user's account
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	account, err := getUserAccount(userCtx.UserID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":            account.ID,
		"uuid":          account.UUID,
		"name":          account.Name,
		"email":         account.Email,
		"avatar_url":    account.AvatarURL,
		"last_login_at": formatTimePtr(account.LastLoginAt),
	})
}
