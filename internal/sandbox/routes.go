package sandbox

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIPrefix mirrors the path of the hosted service so clients only swap the host.
const APIPrefix = "/appstore/api"

// RegisterRoutes registers all HTTP routes on the Fiber app.
func RegisterRoutes(app *fiber.App, st *Store, h *Handler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := st.HealthCheck(healthCtx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"checks": fiber.Map{"store": err.Error()},
			})
		}
		return c.JSON(fiber.Map{
			"status": "ok",
			"checks": fiber.Map{"store": "ok"},
		})
	})

	api := app.Group(APIPrefix)
	api.Post("/auth", h.Auth)
	api.Post("/get", h.Get)
	api.Post("/set", h.Set)
	api.Post("/submit", h.Submit)
}
