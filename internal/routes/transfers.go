package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fincore/fincore/internal/bank"
)

// RegisterTransferRoutes wires the dual-account transfer endpoint.
func RegisterTransferRoutes(r fiber.Router, h *bank.Handler) {
	r.Post("/transfers", h.Transfer)
}
