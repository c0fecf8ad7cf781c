package models

import "time"

// Reserva es la entidad de asociación entre una solicitud y una placa.
// Se crea 1:1 con la reserva de la solicitud, se borra cuando la
// solicitud se rechaza o cancela, y en devolución anticipada su FinUso
// se trunca a la hora real de entrega en garita (el resto de la ventana
// queda libre de inmediato, el registro histórico se conserva).
type Reserva struct {
	ID          string    `json:"id"`
	Placa       string    `json:"placa"`
	Ventana     Ventana   `json:"ventana"`
	SolicitudID string    `json:"solicitud_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReservaOcupacion es la proyección que usa el resolver de
// disponibilidad: la reserva junto con el estado de su solicitud dueña.
// EstadoDueno queda vacío cuando la solicitud ya no existe; ese caso se
// clasifica como activo (bloquea) por seguridad.
type ReservaOcupacion struct {
	Placa       string
	Ventana     Ventana
	SolicitudID string
	EstadoDueno EstadoSolicitud
	SinDueno    bool
}

// Bloquea indica si esta reserva cuenta como ocupación de la placa.
func (r ReservaOcupacion) Bloquea() bool {
	if r.SinDueno {
		return true
	}
	return r.EstadoDueno.Activa()
}
