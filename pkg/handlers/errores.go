package handlers

import (
	"errors"

	"flota/pkg/models"

	"github.com/gofiber/fiber/v2"
)

// responderError traduce las sentinelas del dominio a status HTTP. El
// mensaje completo (con el error original del store encadenado) se
// devuelve tal cual para que el dashboard lo muestre al usuario.
func responderError(c *fiber.Ctx, err error) error {
	status := 500
	switch {
	case errors.Is(err, models.ErrValidacion):
		status = 400
	case errors.Is(err, models.ErrNoEncontrado):
		status = 404
	case errors.Is(err, models.ErrConflicto):
		status = 409
	case errors.Is(err, models.ErrAlmacen):
		status = 503
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
