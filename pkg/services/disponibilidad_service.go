package services

import (
	"fmt"
	"time"

	"flota/pkg/cache"
	"flota/pkg/models"
	"flota/pkg/repository"
)

// DisponibilidadService resuelve qué placas están libres en una ventana
// arbitraria. Es una consulta pura: el árbitro real contra carreras es
// el insert de la reserva.
type DisponibilidadService interface {
	Consultar(v models.Ventana) ([]string, error)
}

type disponibilidadService struct {
	flota    repository.FlotaRepository
	reservas repository.ReservasRepository
	redis    *cache.Redis
}

func NewDisponibilidadService(flota repository.FlotaRepository, reservas repository.ReservasRepository, redis *cache.Redis) DisponibilidadService {
	return &disponibilidadService{flota: flota, reservas: reservas, redis: redis}
}

func llaveDisponibilidad(v models.Ventana) string {
	return fmt.Sprintf("disponibilidad:%d:%d", v.Inicio.Unix(), v.Fin.Unix())
}

// Consultar implementa el resolver:
//  1. candidatas = vehículos con estado disponible, ordenados por placa;
//     si no hay ninguna corta de inmediato sin tocar reservas.
//  2. reservas cuya ventana traslapa (semiabierto estricto), unidas al
//     estado de su solicitud dueña.
//  3. ocupan solo las reservas cuya dueña sigue activa; una reserva sin
//     dueña resoluble bloquea (se falla hacia bloquear, nunca hacia
//     doble reserva).
//  4. resultado = candidatas menos placas ocupadas.
//
// Asume ventana ya validada por el caller (inicio < fin).
func (s *disponibilidadService) Consultar(v models.Ventana) ([]string, error) {
	llave := llaveDisponibilidad(v)
	var cacheado []string
	if s.redis.Get(llave, &cacheado) {
		return cacheado, nil
	}

	candidatas, err := s.flota.PlacasDisponibles()
	if err != nil {
		return nil, err
	}
	if len(candidatas) == 0 {
		return []string{}, nil
	}

	ocupacion, err := s.reservas.Ocupacion(v.Inicio, v.Fin)
	if err != nil {
		return nil, err
	}

	ocupadas := make(map[string]bool, len(ocupacion))
	for _, o := range ocupacion {
		if o.Bloquea() {
			ocupadas[o.Placa] = true
		}
	}

	libres := []string{}
	for _, placa := range candidatas {
		if !ocupadas[placa] {
			libres = append(libres, placa)
		}
	}

	s.redis.Set(llave, libres, 1*time.Second) // micro-caché
	return libres, nil
}
