package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// EstadoVehiculo es administrativo: lo fija flota, nunca una reserva.
type EstadoVehiculo string

const (
	VehiculoDisponible    EstadoVehiculo = "disponible"
	VehiculoEnUso         EstadoVehiculo = "en_uso"
	VehiculoMantenimiento EstadoVehiculo = "mantenimiento"
	VehiculoInactivo      EstadoVehiculo = "inactiva"
)

func (e EstadoVehiculo) Valido() bool {
	switch e {
	case VehiculoDisponible, VehiculoEnUso, VehiculoMantenimiento, VehiculoInactivo:
		return true
	}
	return false
}

var placaRe = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// NormalizarPlaca valida el formato de placa (6 alfanuméricos) y la
// devuelve en mayúsculas.
func NormalizarPlaca(placa string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(placa))
	if !placaRe.MatchString(p) {
		return "", fmt.Errorf("%w: placa %q debe ser 6 caracteres alfanuméricos", ErrValidacion, placa)
	}
	return p, nil
}

type Vehiculo struct {
	Placa           string         `json:"placa"`
	Marca           string         `json:"marca"`
	Modelo          string         `json:"modelo"`
	Color           string         `json:"color"`
	Traccion        string         `json:"traccion"`
	RevisionTecnica *time.Time     `json:"revision_tecnica,omitempty"`
	SeguroVence     *time.Time     `json:"seguro_vence,omitempty"`
	Estado          EstadoVehiculo `json:"estado"`
	Volante         bool           `json:"volante"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type VehiculoRequest struct {
	Placa           string     `json:"placa"`
	Marca           string     `json:"marca"`
	Modelo          string     `json:"modelo"`
	Color           string     `json:"color"`
	Traccion        string     `json:"traccion"`
	RevisionTecnica *time.Time `json:"revision_tecnica,omitempty"`
	SeguroVence     *time.Time `json:"seguro_vence,omitempty"`
	Estado          string     `json:"estado"`
	Volante         bool       `json:"volante"`
}
