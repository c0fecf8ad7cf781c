package handlers

import (
	"flota/pkg/hub"
	"flota/pkg/models"
	"flota/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type FlotaHandler struct {
	flota          services.FlotaService
	disponibilidad services.DisponibilidadService
	hub            *hub.Hub
}

func NewFlota(flota services.FlotaService, disponibilidad services.DisponibilidadService, h *hub.Hub) *FlotaHandler {
	return &FlotaHandler{flota: flota, disponibilidad: disponibilidad, hub: h}
}

func (h *FlotaHandler) Listar(c *fiber.Ctx) error {
	flota, err := h.flota.Listar(c.Query("estado"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(flota)
}

func (h *FlotaHandler) Buscar(c *fiber.Ctx) error {
	v, err := h.flota.Buscar(c.Params("placa"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(v)
}

func (h *FlotaHandler) Crear(c *fiber.Ctx) error {
	var req models.VehiculoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Body inválido"})
	}
	v, err := h.flota.Crear(req)
	if err != nil {
		return responderError(c, err)
	}
	h.hub.Broadcast("flota.actualizada", "flota", v)
	return c.Status(201).JSON(v)
}

func (h *FlotaHandler) Actualizar(c *fiber.Ctx) error {
	var req models.VehiculoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Body inválido"})
	}
	v, err := h.flota.Actualizar(c.Params("placa"), req)
	if err != nil {
		return responderError(c, err)
	}
	h.hub.Broadcast("flota.actualizada", "flota", v)
	return c.JSON(v)
}

func (h *FlotaHandler) CambiarEstado(c *fiber.Ctx) error {
	var req struct {
		Estado string `json:"estado"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Body inválido"})
	}
	v, err := h.flota.CambiarEstado(c.Params("placa"), req.Estado)
	if err != nil {
		return responderError(c, err)
	}
	h.hub.Broadcast("flota.actualizada", "flota", v)
	return c.JSON(v)
}

func (h *FlotaHandler) Eliminar(c *fiber.Ctx) error {
	if err := h.flota.Eliminar(c.Params("placa")); err != nil {
		return responderError(c, err)
	}
	h.hub.Broadcast("flota.actualizada", "flota", fiber.Map{"placa": c.Params("placa"), "eliminada": true})
	return c.JSON(fiber.Map{"status": "eliminada"})
}

// Disponibilidad responde las placas libres para ?inicio=&fin= (RFC3339).
// La ventana se valida aquí, antes de tocar el resolver.
func (h *FlotaHandler) Disponibilidad(c *fiber.Ctx) error {
	v, err := parseVentana(c.Query("inicio"), c.Query("fin"))
	if err != nil {
		return responderError(c, err)
	}
	libres, err := h.disponibilidad.Consultar(v)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(fiber.Map{"ventana": v, "placas": libres})
}
