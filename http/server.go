// client/http/server.go
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// App wires the routes onto a fresh fiber application.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "lumi-client",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(s.logRequests)

	api := app.Group("/api")
	api.Get("/state", s.HandleState)
	api.Get("/events", s.HandleEvents)
	api.Post("/reload", s.HandleReload)
	api.Post("/health", s.HandleHealth)
	api.Post("/form", s.HandleSubmit)
	api.Get("/notes/:id", s.HandleGetNote)
	api.Post("/notes/:id/edit", s.HandleEdit)
	api.Delete("/notes/:id", s.HandleDelete)
	api.Delete("/editing", s.HandleCancelEdit)

	return app
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	evt := s.log.Debug()
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Str("method", c.Method()).
		Str("path", c.Path()).
		Dur("elapsed", time.Since(start)).
		Msg("request")
	return err
}
