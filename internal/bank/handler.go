package bank

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/fincore/fincore/internal/account"
)

// Handler exposes the ledger HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a ledger HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Type     string `json:"type"`
	Owner    string `json:"owner"`
	Currency string `json:"currency"`
}

type amountRequest struct {
	Amount string `json:"amount"`
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Create opens a new account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	snap, err := h.service.CreateAccount(c.UserContext(), req.Type, req.Owner, req.Currency)
	if err != nil {
		return domainError(err)
	}
	return c.Status(http.StatusCreated).JSON(snap)
}

// Get returns the account read model, including the ordered history.
func (h *Handler) Get(c *fiber.Ctx) error {
	snap, err := h.service.GetAccount(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return domainError(err)
	}
	return c.Status(http.StatusOK).JSON(snap)
}

// Deposit credits the account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	return h.mutation(c, h.service.Deposit)
}

// Withdraw debits the account under its subtype policy.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	return h.mutation(c, h.service.Withdraw)
}

func (h *Handler) mutation(c *fiber.Ctx, op func(ctx context.Context, id string, amount decimal.Decimal) error) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}
	id := c.Params("accountId")
	if err := op(c.UserContext(), id, amount); err != nil {
		return domainError(err)
	}
	snap, err := h.service.GetAccount(c.UserContext(), id)
	if err != nil {
		return domainError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"id": snap.Number, "balance": snap.Balance})
}

// Transfer moves funds between two accounts atomically.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}
	if err := h.service.Transfer(c.UserContext(), req.From, req.To, amount); err != nil {
		return domainError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "completed", "from": req.From, "to": req.To})
}

// EndOfPeriod runs the interest/fee batch over every account and reports
// per-account outcomes.
func (h *Handler) EndOfPeriod(c *fiber.Ctx) error {
	results, err := h.service.RunEndOfPeriod(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]fiber.Map, 0, len(results))
	for _, r := range results {
		item := fiber.Map{"account_id": r.AccountID, "status": "ok"}
		if r.Err != nil {
			item["status"] = "failed"
			item["error"] = r.Err.Error()
		}
		out = append(out, item)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"results": out})
}

// domainError maps ledger errors onto HTTP status codes.
func domainError(err error) error {
	switch {
	case errors.Is(err, account.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, account.ErrInsufficientFunds):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, account.ErrInvalidAccountType),
		errors.Is(err, account.ErrInvalidCurrency):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
