package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/trackvote/trackvote/app/controllers"
	"github.com/trackvote/trackvote/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")

	// Poll results and poll details are public; everything else needs a session
	v1.Get("/polls/:uuid", controllers.HandleAPIGetPoll)
	v1.Get("/polls/:uuid/results", controllers.HandleAPIGetPollResults)

	v1.Get("/me", middleware.RequireAPISessionAuth, controllers.HandleMe)
	v1.Get("/tracks/search", middleware.RequireAPISessionAuth, controllers.HandleAPISearchTracks)
	v1.Post("/polls", middleware.RequireAPISessionAuth, controllers.HandleAPICreatePoll)
	v1.Post("/polls/:uuid/votes", middleware.RequireAPISessionAuth, controllers.HandleAPIVote)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
