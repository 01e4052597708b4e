package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trackvote/trackvote/app/controllers"
	"github.com/trackvote/trackvote/internal/pkg/middleware"
	"github.com/trackvote/trackvote/internal/pkg/oauth"
	"github.com/trackvote/trackvote/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	app.Get("/", controllers.HandleIndex)

	// Spotify login flow; goth derives the provider from the path parameter
	app.Get("/auth/:provider", controllers.HandleAuthLogin)
	app.Get("/auth/:provider/callback", controllers.HandleAuthCallback)
	app.Get("/logout", controllers.HandleLogout)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
