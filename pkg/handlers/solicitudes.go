package handlers

import (
	"flota/pkg/hub"
	"flota/pkg/models"
	"flota/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type SolicitudesHandler struct {
	reservas     services.ReservasService
	vencimientos services.VencimientosService
	hub          *hub.Hub
}

func NewSolicitudes(reservas services.ReservasService, vencimientos services.VencimientosService, h *hub.Hub) *SolicitudesHandler {
	return &SolicitudesHandler{reservas: reservas, vencimientos: vencimientos, hub: h}
}

func (h *SolicitudesHandler) Listar(c *fiber.Ctx) error {
	lista, err := h.reservas.Listar(
		c.Query("estado"),
		c.Query("placa"),
		c.QueryInt("limit", 20),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(lista)
}

func (h *SolicitudesHandler) Buscar(c *fiber.Ctx) error {
	s, err := h.reservas.Buscar(c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(s)
}

// Crear es el flujo autoservicio: la placa viene elegida de una
// consulta de disponibilidad previa y la solicitud nace reservada.
func (h *SolicitudesHandler) Crear(c *fiber.Ctx) error {
	var req models.SolicitudRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Body inválido"})
	}

	creador := models.User{ID: localInt(c, "user_id"), Nombre: localStr(c, "username"), Area: localStr(c, "area")}
	s, err := h.reservas.Reservar(req, creador)
	if err != nil {
		return responderError(c, err)
	}
	h.hub.Broadcast("solicitudes.actualizada", "flota", s)
	return c.Status(201).JSON(s)
}

// Asignar es el flujo administrativo sobre una solicitud pendiente.
func (h *SolicitudesHandler) Asignar(c *fiber.Ctx) error {
	var req models.AsignarRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Body inválido"})
	}
	s, err := h.reservas.Asignar(c.Params("id"), req)
	if err != nil {
		return responderError(c, err)
	}
	h.hub.Broadcast("solicitudes.actualizada", "flota", s)
	return c.JSON(s)
}

func (h *SolicitudesHandler) Rechazar(c *fiber.Ctx) error {
	s, err := h.reservas.Rechazar(c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	h.hub.Broadcast("solicitudes.actualizada", "flota", s)
	return c.JSON(s)
}

func (h *SolicitudesHandler) Cancelar(c *fiber.Ctx) error {
	s, err := h.reservas.Cancelar(c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	h.hub.Broadcast("solicitudes.actualizada", "flota", s)
	return c.JSON(s)
}

// BarrerVencidas corre el barrido de vencimientos bajo demanda (el
// dashboard lo dispara al cargar; un ticker en main lo repite solo).
func (h *SolicitudesHandler) BarrerVencidas(c *fiber.Ctx) error {
	ids, err := h.vencimientos.Barrer()
	if err != nil {
		return responderError(c, err)
	}
	if len(ids) > 0 {
		h.hub.Broadcast("solicitudes.vencidas", "flota", fiber.Map{"ids": ids})
	}
	return c.JSON(fiber.Map{"vencidas": len(ids), "ids": ids})
}

func localInt(c *fiber.Ctx, key string) int {
	v, _ := c.Locals(key).(int)
	return v
}

func localStr(c *fiber.Ctx, key string) string {
	v, _ := c.Locals(key).(string)
	return v
}
