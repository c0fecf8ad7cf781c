package handlers

import (
	"flota/pkg/hub"
	"flota/pkg/services"

	"github.com/gofiber/fiber/v2"
)

// GaritaHandler cubre las acciones del punto de control: entrega de la
// camioneta al solicitante y recepción a la devolución.
type GaritaHandler struct {
	reservas services.ReservasService
	hub      *hub.Hub
}

func NewGarita(reservas services.ReservasService, h *hub.Hub) *GaritaHandler {
	return &GaritaHandler{reservas: reservas, hub: h}
}

// Entregar marca la salida: solicitud reservada pasa a en uso y queda
// sellada la hora de entrega. La reserva no se toca.
func (h *GaritaHandler) Entregar(c *fiber.Ctx) error {
	s, err := h.reservas.Entregar(c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	h.hub.Broadcast("solicitudes.actualizada", "flota", s)
	return c.JSON(s)
}

// Devolver marca el regreso: solicitud en uso pasa a cerrada, queda
// sellada la hora de devolución y la reserva se trunca a ese momento,
// liberando el resto de la ventana.
func (h *GaritaHandler) Devolver(c *fiber.Ctx) error {
	s, err := h.reservas.Devolver(c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	h.hub.Broadcast("solicitudes.actualizada", "flota", s)
	return c.JSON(s)
}
