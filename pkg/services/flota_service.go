package services

import (
	"fmt"
	"time"

	"flota/pkg/cache"
	"flota/pkg/models"
	"flota/pkg/repository"
)

// FlotaService cubre el inventario de camionetas. El estado del
// vehículo es puramente administrativo: lo cambia flota desde aquí y
// nunca una reserva.
type FlotaService interface {
	Listar(estado string) ([]models.Vehiculo, error)
	Buscar(placa string) (models.Vehiculo, error)
	Crear(req models.VehiculoRequest) (models.Vehiculo, error)
	Actualizar(placa string, req models.VehiculoRequest) (models.Vehiculo, error)
	CambiarEstado(placa, estado string) (models.Vehiculo, error)
	Eliminar(placa string) error
}

type flotaService struct {
	repo  repository.FlotaRepository
	redis *cache.Redis
}

func NewFlotaService(repo repository.FlotaRepository, redis *cache.Redis) FlotaService {
	return &flotaService{repo: repo, redis: redis}
}

func (s *flotaService) invalidar() {
	s.redis.DelPattern("flota:*")
	s.redis.DelPattern("disponibilidad:*")
}

func (s *flotaService) Listar(estado string) ([]models.Vehiculo, error) {
	if estado != "" && !models.EstadoVehiculo(estado).Valido() {
		return nil, fmt.Errorf("%w: estado de vehículo desconocido %q", models.ErrValidacion, estado)
	}

	llave := "flota:list:" + estado
	var cacheado []models.Vehiculo
	if s.redis.Get(llave, &cacheado) {
		return cacheado, nil
	}

	flota, err := s.repo.Listar(estado)
	if err != nil {
		return nil, err
	}
	s.redis.Set(llave, flota, 30*time.Second)
	return flota, nil
}

func (s *flotaService) Buscar(placa string) (models.Vehiculo, error) {
	p, err := models.NormalizarPlaca(placa)
	if err != nil {
		return models.Vehiculo{}, err
	}
	return s.repo.BuscarPorPlaca(p)
}

func (s *flotaService) desdeRequest(req models.VehiculoRequest) (models.Vehiculo, error) {
	placa, err := models.NormalizarPlaca(req.Placa)
	if err != nil {
		return models.Vehiculo{}, err
	}
	estado := models.EstadoVehiculo(req.Estado)
	if req.Estado == "" {
		estado = models.VehiculoDisponible
	}
	if !estado.Valido() {
		return models.Vehiculo{}, fmt.Errorf("%w: estado de vehículo desconocido %q", models.ErrValidacion, req.Estado)
	}
	return models.Vehiculo{
		Placa:           placa,
		Marca:           req.Marca,
		Modelo:          req.Modelo,
		Color:           req.Color,
		Traccion:        req.Traccion,
		RevisionTecnica: req.RevisionTecnica,
		SeguroVence:     req.SeguroVence,
		Estado:          estado,
		Volante:         req.Volante,
	}, nil
}

func (s *flotaService) Crear(req models.VehiculoRequest) (models.Vehiculo, error) {
	v, err := s.desdeRequest(req)
	if err != nil {
		return models.Vehiculo{}, err
	}
	creado, err := s.repo.Crear(v)
	if err != nil {
		return models.Vehiculo{}, err
	}
	s.invalidar()
	return creado, nil
}

func (s *flotaService) Actualizar(placa string, req models.VehiculoRequest) (models.Vehiculo, error) {
	p, err := models.NormalizarPlaca(placa)
	if err != nil {
		return models.Vehiculo{}, err
	}
	req.Placa = p
	v, err := s.desdeRequest(req)
	if err != nil {
		return models.Vehiculo{}, err
	}
	actualizado, err := s.repo.Actualizar(p, v)
	if err != nil {
		return models.Vehiculo{}, err
	}
	s.invalidar()
	return actualizado, nil
}

func (s *flotaService) CambiarEstado(placa, estado string) (models.Vehiculo, error) {
	p, err := models.NormalizarPlaca(placa)
	if err != nil {
		return models.Vehiculo{}, err
	}
	e := models.EstadoVehiculo(estado)
	if !e.Valido() {
		return models.Vehiculo{}, fmt.Errorf("%w: estado de vehículo desconocido %q", models.ErrValidacion, estado)
	}
	v, err := s.repo.CambiarEstado(p, e)
	if err != nil {
		return models.Vehiculo{}, err
	}
	s.invalidar()
	return v, nil
}

func (s *flotaService) Eliminar(placa string) error {
	p, err := models.NormalizarPlaca(placa)
	if err != nil {
		return err
	}
	if err := s.repo.Eliminar(p); err != nil {
		return err
	}
	s.invalidar()
	return nil
}
