package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"flota/pkg/cache"
	"flota/pkg/models"
	"flota/pkg/repository"

	"github.com/google/uuid"
)

// ReservasService es el administrador de transacciones de reserva: crea
// el par solicitud+reserva con rollback compensatorio, lleva la
// solicitud por su ciclo de vida y mantiene la ocupación de la placa
// consistente (truncado en devolución anticipada).
//
// No hay transacción multi-fila real contra el store: la invariante se
// sostiene con el orden de escrituras (la fila dependiente se inserta
// al final, se borra lo confirmado si falla) y con la re-validación
// inmediatamente antes de la primera escritura. El constraint de
// exclusión placa/ventana del esquema es el árbitro final entre
// callers concurrentes: gana el primer insert, el perdedor compensa.
type ReservasService interface {
	Reservar(req models.SolicitudRequest, creador models.User) (models.Solicitud, error)
	Asignar(solicitudID string, req models.AsignarRequest) (models.Solicitud, error)
	Rechazar(solicitudID string) (models.Solicitud, error)
	Cancelar(solicitudID string) (models.Solicitud, error)
	Entregar(solicitudID string) (models.Solicitud, error)
	Devolver(solicitudID string) (models.Solicitud, error)
	Listar(estado, placa string, limit, offset int) ([]models.Solicitud, error)
	Buscar(id string) (models.Solicitud, error)
}

type reservasService struct {
	solicitudes    repository.SolicitudesRepository
	reservas       repository.ReservasRepository
	flota          repository.FlotaRepository
	disponibilidad DisponibilidadService
	redis          *cache.Redis
	avisos         Notificador
	ahora          func() time.Time
}

func NewReservasService(
	solicitudes repository.SolicitudesRepository,
	reservas repository.ReservasRepository,
	flota repository.FlotaRepository,
	disponibilidad DisponibilidadService,
	redis *cache.Redis,
	avisos Notificador,
) ReservasService {
	return &reservasService{
		solicitudes:    solicitudes,
		reservas:       reservas,
		flota:          flota,
		disponibilidad: disponibilidad,
		redis:          redis,
		avisos:         avisos,
		ahora:          time.Now,
	}
}

func (s *reservasService) invalidar() {
	s.redis.DelPattern("disponibilidad:*")
}

// placaLibre re-consulta disponibilidad para la ventana exacta y
// verifica que la placa elegida siga presente. Entre la consulta del
// caller y este commit pudo habérsela llevado otro: el clásico hueco
// check/commit, que aquí se reduce y más abajo arbitra el insert.
func (s *reservasService) placaLibre(placa string, v models.Ventana) error {
	libres, err := s.disponibilidad.Consultar(v)
	if err != nil {
		return err
	}
	for _, p := range libres {
		if p == placa {
			return nil
		}
	}
	return fmt.Errorf("%w: la placa %s ya no está disponible en esa ventana", models.ErrConflicto, placa)
}

func (s *reservasService) Reservar(req models.SolicitudRequest, creador models.User) (models.Solicitud, error) {
	if err := req.Validar(); err != nil {
		return models.Solicitud{}, err
	}
	ventana := models.Ventana{Inicio: *req.InicioUso, Fin: *req.FinUso}
	if err := ventana.Validar(s.ahora()); err != nil {
		return models.Solicitud{}, err
	}
	placa, err := models.NormalizarPlaca(req.Placa)
	if err != nil {
		return models.Solicitud{}, err
	}

	// Autoservicio: solo camionetas con volante asignado.
	vehiculo, err := s.flota.BuscarPorPlaca(placa)
	if err != nil {
		return models.Solicitud{}, err
	}
	if !vehiculo.Volante {
		return models.Solicitud{}, fmt.Errorf("%w: la camioneta %s no está habilitada para autoservicio", models.ErrValidacion, placa)
	}

	if err := s.placaLibre(placa, ventana); err != nil {
		return models.Solicitud{}, err
	}

	var comp compensacion

	creada, err := s.solicitudes.Crear(models.Solicitud{
		ID:                   uuid.NewString(),
		SolicitanteNombre:    req.SolicitanteNombre,
		SolicitanteDocumento: req.SolicitanteDocumento,
		Origen:               req.Origen,
		Destino:              req.Destino,
		Motivo:               req.Motivo,
		Ventana:              ventana,
		Estado:               models.SolicitudReservada,
		Placa:                placa,
		CreadorID:            creador.ID,
		CreadorNombre:        creador.Nombre,
		CreadorArea:          creador.Area,
	})
	if err != nil {
		return models.Solicitud{}, err
	}
	comp.registrar("insert solicitud", func() error {
		return s.solicitudes.Eliminar(creada.ID)
	})

	_, err = s.reservas.Crear(models.Reserva{
		ID:          uuid.NewString(),
		Placa:       placa,
		Ventana:     ventana,
		SolicitudID: creada.ID,
	})
	if err != nil {
		// La operación completa falla: nunca queda una solicitud a
		// medio crear. El tipo de error sí se distingue (perder la
		// carrera es conflicto, una falla de red es reintenable) para
		// que el caller no descarte una solicitud válida por un blip.
		comp.ejecutar()
		if errors.Is(err, models.ErrConflicto) {
			return models.Solicitud{}, fmt.Errorf("%w: otra reserva ganó la ventana para %s", models.ErrConflicto, placa)
		}
		return models.Solicitud{}, err
	}

	s.invalidar()
	s.avisos.Notificar(models.Aviso{
		Titulo:    "Nueva reserva de camioneta",
		Cuerpo:    fmt.Sprintf("%s reservó la %s (%s → %s)", creada.SolicitanteNombre, placa, creada.Origen, creada.Destino),
		Severidad: models.AvisoInfo,
		RolFiltro: models.RolGarita,
	})
	return creada, nil
}

func (s *reservasService) Asignar(solicitudID string, req models.AsignarRequest) (models.Solicitud, error) {
	placa, err := models.NormalizarPlaca(req.Placa)
	if err != nil {
		return models.Solicitud{}, err
	}

	previa, err := s.solicitudes.BuscarPorID(solicitudID)
	if err != nil {
		return models.Solicitud{}, err
	}
	if previa.Estado != models.SolicitudPendiente {
		return models.Solicitud{}, fmt.Errorf("%w: la solicitud %s no está pendiente (estado %s)", models.ErrNoEncontrado, solicitudID, previa.Estado)
	}

	ventana := previa.Ventana
	if req.HoraRecogida != nil {
		ventana.Inicio = *req.HoraRecogida
	}
	if err := ventana.Validar(s.ahora()); err != nil {
		return models.Solicitud{}, err
	}

	if err := s.placaLibre(placa, ventana); err != nil {
		return models.Solicitud{}, err
	}

	var comp compensacion

	actualizada := previa
	actualizada.Placa = placa
	actualizada.Ventana = ventana
	asignada, err := s.solicitudes.Transicionar(solicitudID, models.SolicitudPendiente, models.SolicitudReservada, actualizada)
	if err != nil {
		return models.Solicitud{}, err
	}
	// La solicitud ya existía: la compensación restaura sus campos
	// previos en lugar de borrarla.
	comp.registrar("transición a reservada", func() error {
		return s.solicitudes.Restaurar(solicitudID, previa.Estado, previa.Placa, previa.Ventana)
	})

	_, err = s.reservas.Crear(models.Reserva{
		ID:          uuid.NewString(),
		Placa:       placa,
		Ventana:     ventana,
		SolicitudID: solicitudID,
	})
	if err != nil {
		comp.ejecutar()
		if errors.Is(err, models.ErrConflicto) {
			return models.Solicitud{}, fmt.Errorf("%w: otra reserva ganó la ventana para %s", models.ErrConflicto, placa)
		}
		return models.Solicitud{}, err
	}

	s.invalidar()
	s.avisos.Notificar(models.Aviso{
		Titulo:     "Camioneta asignada",
		Cuerpo:     fmt.Sprintf("La solicitud de %s quedó asignada a la %s", asignada.SolicitanteNombre, placa),
		Severidad:  models.AvisoInfo,
		AreaFiltro: asignada.CreadorArea,
	})
	return asignada, nil
}

// liberar pasa la solicitud a un estado terminal sin uso (rechazada o
// cancelada) y borra sus reservas: la ventana completa vuelve a quedar
// reservable de inmediato.
func (s *reservasService) liberar(solicitudID string, destino models.EstadoSolicitud) (models.Solicitud, error) {
	previa, err := s.solicitudes.BuscarPorID(solicitudID)
	if err != nil {
		return models.Solicitud{}, err
	}
	if previa.Estado == destino || !models.PuedeTransicionar(previa.Estado, destino) {
		return models.Solicitud{}, fmt.Errorf("%w: la solicitud %s no admite %s desde %s", models.ErrNoEncontrado, solicitudID, destino, previa.Estado)
	}

	actualizada, err := s.solicitudes.Transicionar(solicitudID, previa.Estado, destino, previa)
	if err != nil {
		return models.Solicitud{}, err
	}
	if err := s.reservas.EliminarPorSolicitud(solicitudID); err != nil {
		// El estado terminal ya dejó de bloquear disponibilidad; la
		// fila de reserva huérfana solo es ruido histórico.
		log.Printf("[RESERVAS] no se pudieron borrar reservas de %s: %v", solicitudID, err)
	}

	s.invalidar()
	return actualizada, nil
}

func (s *reservasService) Rechazar(solicitudID string) (models.Solicitud, error) {
	return s.liberar(solicitudID, models.SolicitudRechazada)
}

func (s *reservasService) Cancelar(solicitudID string) (models.Solicitud, error) {
	cancelada, err := s.liberar(solicitudID, models.SolicitudCancelada)
	if err != nil {
		return cancelada, err
	}
	s.avisos.Notificar(models.Aviso{
		Titulo:    "Reserva cancelada",
		Cuerpo:    fmt.Sprintf("La solicitud de %s fue cancelada; la %s queda libre", cancelada.SolicitanteNombre, cancelada.Placa),
		Severidad: models.AvisoAlerta,
		RolFiltro: models.RolGarita,
	})
	return cancelada, nil
}

// Entregar registra la salida en garita: solo legal sobre una solicitud
// reservada. No toca la reserva: la ventana sigue ocupada porque aún
// no se sabe si la devolución será anticipada.
func (s *reservasService) Entregar(solicitudID string) (models.Solicitud, error) {
	previa, err := s.solicitudes.BuscarPorID(solicitudID)
	if err != nil {
		return models.Solicitud{}, err
	}
	if previa.Estado != models.SolicitudReservada {
		return models.Solicitud{}, fmt.Errorf("%w: la solicitud %s no está reservada (estado %s)", models.ErrNoEncontrado, solicitudID, previa.Estado)
	}

	if err := previa.AplicarTransicion(models.SolicitudEnUso, s.ahora()); err != nil {
		return models.Solicitud{}, err
	}
	entregada, err := s.solicitudes.Transicionar(solicitudID, models.SolicitudReservada, models.SolicitudEnUso, previa)
	if err != nil {
		return models.Solicitud{}, err
	}

	s.invalidar()
	return entregada, nil
}

// Devolver registra el regreso en garita: solo legal sobre una
// solicitud en uso. Además trunca el fin de la reserva a la hora real
// de devolución: el resto de la ventana planificada queda libre de
// inmediato sin borrar el registro histórico.
func (s *reservasService) Devolver(solicitudID string) (models.Solicitud, error) {
	previa, err := s.solicitudes.BuscarPorID(solicitudID)
	if err != nil {
		return models.Solicitud{}, err
	}
	if previa.Estado != models.SolicitudEnUso {
		return models.Solicitud{}, fmt.Errorf("%w: la solicitud %s no está en uso (estado %s)", models.ErrNoEncontrado, solicitudID, previa.Estado)
	}

	ahora := s.ahora()
	if err := previa.AplicarTransicion(models.SolicitudCerrada, ahora); err != nil {
		return models.Solicitud{}, err
	}
	devuelta, err := s.solicitudes.Transicionar(solicitudID, models.SolicitudEnUso, models.SolicitudCerrada, previa)
	if err != nil {
		return models.Solicitud{}, err
	}

	if err := s.reservas.TruncarFin(solicitudID, ahora); err != nil {
		// La solicitud cerrada ya no bloquea disponibilidad aunque la
		// ventana quede sin truncar; se registra y no se reintenta.
		log.Printf("[RESERVAS] no se pudo truncar la reserva de %s: %v", solicitudID, err)
	}

	s.invalidar()
	return devuelta, nil
}

func (s *reservasService) Listar(estado, placa string, limit, offset int) ([]models.Solicitud, error) {
	return s.solicitudes.Listar(estado, placa, limit, offset)
}

func (s *reservasService) Buscar(id string) (models.Solicitud, error) {
	return s.solicitudes.BuscarPorID(id)
}
