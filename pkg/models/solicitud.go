package models

import (
	"fmt"
	"strings"
	"time"
)

// EstadoSolicitud se persiste como string pero el código lo trata como
// enum cerrado: toda clasificación pasa por un switch exhaustivo para
// que agregar un estado nuevo obligue a revisar cada sitio.
type EstadoSolicitud string

const (
	SolicitudPendiente EstadoSolicitud = "pendiente"
	SolicitudAsignada  EstadoSolicitud = "asignada"
	SolicitudReservada EstadoSolicitud = "reservada"
	SolicitudEnUso     EstadoSolicitud = "en_uso"
	SolicitudRechazada EstadoSolicitud = "rechazada"
	SolicitudCancelada EstadoSolicitud = "cancelada"
	SolicitudCerrada   EstadoSolicitud = "cerrada"
	SolicitudVencida   EstadoSolicitud = "vencida"
)

// Activa indica si la solicitud todavía reclama capacidad de flota:
// sus reservas bloquean disponibilidad. Un estado desconocido clasifica
// como activo: ante la duda se bloquea, nunca se sobre-reserva.
func (e EstadoSolicitud) Activa() bool {
	switch e {
	case SolicitudPendiente, SolicitudAsignada, SolicitudReservada, SolicitudEnUso:
		return true
	case SolicitudRechazada, SolicitudCancelada, SolicitudCerrada, SolicitudVencida:
		return false
	default:
		return true
	}
}

// Terminal indica que la solicitud ya no admite ninguna transición.
func (e EstadoSolicitud) Terminal() bool {
	switch e {
	case SolicitudRechazada, SolicitudCancelada, SolicitudCerrada, SolicitudVencida:
		return true
	default:
		return false
	}
}

// transiciones define el grafo dirigido de estados permitidos. El flujo
// es estrictamente unidireccional; los terminales no tienen salidas.
var transiciones = map[EstadoSolicitud][]EstadoSolicitud{
	SolicitudPendiente: {SolicitudAsignada, SolicitudReservada, SolicitudRechazada, SolicitudCancelada},
	SolicitudAsignada:  {SolicitudReservada, SolicitudRechazada, SolicitudCancelada},
	SolicitudReservada: {SolicitudEnUso, SolicitudCancelada, SolicitudVencida},
	SolicitudEnUso:     {SolicitudCerrada, SolicitudVencida},
	SolicitudRechazada: {},
	SolicitudCancelada: {},
	SolicitudCerrada:   {},
	SolicitudVencida:   {},
}

// PuedeTransicionar reporta si de -> a es una transición permitida.
func PuedeTransicionar(de, a EstadoSolicitud) bool {
	if de == a {
		return true
	}
	permitidos, ok := transiciones[de]
	if !ok {
		return false
	}
	for _, e := range permitidos {
		if e == a {
			return true
		}
	}
	return false
}

type Solicitud struct {
	ID                   string          `json:"id"`
	SolicitanteNombre    string          `json:"solicitante_nombre"`
	SolicitanteDocumento string          `json:"solicitante_documento"`
	Origen               string          `json:"origen"`
	Destino              string          `json:"destino"`
	Motivo               string          `json:"motivo,omitempty"`
	Ventana              Ventana         `json:"ventana"`
	Estado               EstadoSolicitud `json:"estado"`
	Placa                string          `json:"placa,omitempty"`
	CreadorID            int             `json:"creador_id"`
	CreadorNombre        string          `json:"creador_nombre"`
	CreadorArea          string          `json:"creador_area,omitempty"`
	EntregadaEn          *time.Time      `json:"entregada_en,omitempty"`
	DevueltaEn           *time.Time      `json:"devuelta_en,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// AplicarTransicion cambia el estado respetando el grafo y sella los
// timestamps de garita que correspondan al estado destino.
func (s *Solicitud) AplicarTransicion(a EstadoSolicitud, ahora time.Time) error {
	if !PuedeTransicionar(s.Estado, a) {
		return fmt.Errorf("%w: transición no permitida %s -> %s", ErrValidacion, s.Estado, a)
	}
	s.Estado = a
	switch a {
	case SolicitudEnUso:
		if s.EntregadaEn == nil {
			t := ahora
			s.EntregadaEn = &t
		}
	case SolicitudCerrada:
		if s.DevueltaEn == nil {
			t := ahora
			s.DevueltaEn = &t
		}
	}
	return nil
}

// SolicitudRequest es el payload de creación (flujo autoservicio: la
// placa viene elegida de una consulta de disponibilidad previa).
type SolicitudRequest struct {
	SolicitanteNombre    string     `json:"solicitante_nombre"`
	SolicitanteDocumento string     `json:"solicitante_documento"`
	Origen               string     `json:"origen"`
	Destino              string     `json:"destino"`
	Motivo               string     `json:"motivo"`
	InicioUso            *time.Time `json:"inicio_uso"`
	FinUso               *time.Time `json:"fin_uso"`
	Placa                string     `json:"placa"`
}

// Validar cubre los campos de identidad obligatorios; la ventana se
// valida aparte con Ventana.Validar.
func (r SolicitudRequest) Validar() error {
	if strings.TrimSpace(r.SolicitanteNombre) == "" {
		return fmt.Errorf("%w: nombre del solicitante obligatorio", ErrValidacion)
	}
	if strings.TrimSpace(r.SolicitanteDocumento) == "" {
		return fmt.Errorf("%w: documento del solicitante obligatorio", ErrValidacion)
	}
	if strings.TrimSpace(r.Origen) == "" || strings.TrimSpace(r.Destino) == "" {
		return fmt.Errorf("%w: origen y destino obligatorios", ErrValidacion)
	}
	if r.InicioUso == nil || r.FinUso == nil {
		return fmt.Errorf("%w: inicio y fin de uso obligatorios", ErrValidacion)
	}
	return nil
}

// AsignarRequest es el payload del flujo administrativo sobre una
// solicitud pendiente.
type AsignarRequest struct {
	Placa        string     `json:"placa"`
	HoraRecogida *time.Time `json:"hora_recogida,omitempty"`
}
