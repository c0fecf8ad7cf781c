package handlers

import (
	"flota/pkg/models"
	"flota/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	auth services.AuthService
}

func NewAuth(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Body inválido"})
	}
	resp, err := h.auth.Register(req, c.Get("User-Agent"), c.IP())
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(201).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Body inválido"})
	}
	resp, err := h.auth.Login(req, c.Get("User-Agent"), c.IP())
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Body inválido"})
	}
	resp, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.auth.Me(localInt(c, "user_id"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(user)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	c.BodyParser(&req)
	if err := h.auth.Logout(req.RefreshToken); err != nil {
		return responderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	if err := h.auth.LogoutAll(localInt(c, "user_id")); err != nil {
		return responderError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
