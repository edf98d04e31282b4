package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fincore/fincore/internal/bank"
)

// RegisterAccountRoutes wires account lifecycle and single-account mutations.
func RegisterAccountRoutes(r fiber.Router, h *bank.Handler) {
	r.Post("/accounts", h.Create)
	r.Get("/accounts/:accountId", h.Get)
	r.Post("/accounts/:accountId/deposits", h.Deposit)
	r.Post("/accounts/:accountId/withdrawals", h.Withdraw)
}
