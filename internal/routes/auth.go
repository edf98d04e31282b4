package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fincore/fincore/internal/auth"
)

// RegisterAuthRoutes wires registration and login.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
}
