package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fincore/fincore/internal/bank"
)

// RegisterOperationsRoutes wires batch operations.
func RegisterOperationsRoutes(r fiber.Router, h *bank.Handler) {
	r.Post("/operations/end-of-period", h.EndOfPeriod)
}
