package services

import (
	"fmt"

	"flota/pkg/cache"
	"flota/pkg/models"
	"flota/pkg/repository"
)

// VencimientosService es el barrido de vencimientos: marca como
// vencida toda solicitud reservada o en uso cuyo fin de uso ya pasó.
// Vencida es un estado derivado y perezoso: no hay demonio dentro del
// dominio; el barrido se invoca desde un ticker en main y bajo demanda
// al cargar el dashboard. Es idempotente y nunca toca solicitudes cuyo
// fin de uso sigue en el futuro.
type VencimientosService interface {
	Barrer() ([]string, error)
}

type vencimientosService struct {
	solicitudes repository.SolicitudesRepository
	redis       *cache.Redis
	avisos      Notificador
}

func NewVencimientosService(solicitudes repository.SolicitudesRepository, redis *cache.Redis, avisos Notificador) VencimientosService {
	return &vencimientosService{solicitudes: solicitudes, redis: redis, avisos: avisos}
}

func (s *vencimientosService) Barrer() ([]string, error) {
	ids, err := s.solicitudes.MarcarVencidas()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}

	s.redis.DelPattern("disponibilidad:*")
	s.avisos.Notificar(models.Aviso{
		Titulo:    "Solicitudes vencidas",
		Cuerpo:    fmt.Sprintf("%d solicitud(es) pasaron a vencidas por fin de uso superado", len(ids)),
		Severidad: models.AvisoAlerta,
		RolFiltro: models.RolAdmin,
	})
	return ids, nil
}
