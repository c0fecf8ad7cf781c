package handlers

import (
	"fmt"
	"time"

	"flota/pkg/models"
)

// parseVentana arma una ventana desde query params RFC3339. Solo exige
// una ventana bien formada y no invertida; las reglas de negocio
// (mismo día, horario) aplican al reservar, no al consultar.
func parseVentana(inicio, fin string) (models.Ventana, error) {
	if inicio == "" || fin == "" {
		return models.Ventana{}, fmt.Errorf("%w: parámetros inicio y fin obligatorios", models.ErrValidacion)
	}
	ini, err := time.Parse(time.RFC3339, inicio)
	if err != nil {
		return models.Ventana{}, fmt.Errorf("%w: inicio inválido: %v", models.ErrValidacion, err)
	}
	f, err := time.Parse(time.RFC3339, fin)
	if err != nil {
		return models.Ventana{}, fmt.Errorf("%w: fin inválido: %v", models.ErrValidacion, err)
	}
	v := models.Ventana{Inicio: ini, Fin: f}
	if !v.Inicio.Before(v.Fin) {
		return models.Ventana{}, fmt.Errorf("%w: la ventana está invertida o vacía", models.ErrValidacion)
	}
	return v, nil
}
