package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes registration and login endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an auth HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Type     string `json:"type"`
	Owner    string `json:"owner"`
	Currency string `json:"currency"`
	Password string `json:"password"`
}

type loginRequest struct {
	AccountID string `json:"account_id"`
	Password  string `json:"password"`
}

// Register opens an account with credentials attached.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	snap, err := h.service.Register(c.UserContext(), RegisterInput{
		Type:     req.Type,
		Owner:    req.Owner,
		Currency: req.Currency,
		Password: req.Password,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(snap)
}

// Login validates credentials and returns a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, err := h.service.Login(c.UserContext(), req.AccountID, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"account_id": req.AccountID, "token": token})
}
