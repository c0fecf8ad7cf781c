package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"flota/pkg/models"
)

func hora(h, m int) time.Time {
	return time.Date(2026, 3, 4, h, m, 0, 0, time.Local)
}

func camioneta(placa string) models.Vehiculo {
	return models.Vehiculo{
		Placa:   placa,
		Marca:   "Toyota",
		Modelo:  "Hilux",
		Color:   "blanco",
		Estado:  models.VehiculoDisponible,
		Volante: true,
	}
}

type entorno struct {
	flota          *flotaFake
	solicitudes    *solicitudesFake
	reservas       *reservasFake
	avisos         *avisosFake
	disponibilidad DisponibilidadService
	servicio       ReservasService
	reloj          time.Time
}

// armarEntorno cablea los servicios reales sobre los fakes, con reloj
// fijo a las 08:00 y sin Redis (los receptores nil del caché son no-op).
func armarEntorno(vehiculos ...models.Vehiculo) *entorno {
	e := &entorno{reloj: hora(8, 0)}
	ahora := func() time.Time { return e.reloj }

	e.flota = nuevaFlotaFake(vehiculos...)
	e.solicitudes = nuevasSolicitudesFake(ahora)
	e.reservas = nuevasReservasFake(e.solicitudes)
	e.avisos = &avisosFake{}
	e.disponibilidad = NewDisponibilidadService(e.flota, e.reservas, nil)

	svc := NewReservasService(e.solicitudes, e.reservas, e.flota, e.disponibilidad, nil, e.avisos).(*reservasService)
	svc.ahora = ahora
	e.servicio = svc
	return e
}

func (e *entorno) pedido(placa string, inicio, fin time.Time) models.SolicitudRequest {
	return models.SolicitudRequest{
		SolicitanteNombre:    "Ana Quispe",
		SolicitanteDocumento: "45678912",
		Origen:               "Planta",
		Destino:              "Almacén central",
		InicioUso:            &inicio,
		FinUso:               &fin,
		Placa:                placa,
	}
}

var creador = models.User{ID: 7, Nombre: "Ana Quispe", Rol: models.RolSolicitante, Area: "logística"}

func TestReservarCreaSolicitudYReserva(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))

	s, err := e.servicio.Reservar(e.pedido("abc123", hora(9, 0), hora(11, 0)), creador)
	if err != nil {
		t.Fatalf("Reservar: %v", err)
	}
	if s.Estado != models.SolicitudReservada {
		t.Fatalf("estado = %s, se quería reservada", s.Estado)
	}
	if s.Placa != "ABC123" {
		t.Fatalf("placa = %s, se quería ABC123 normalizada", s.Placa)
	}
	reservas, _ := e.reservas.ListarPorSolicitud(s.ID)
	if len(reservas) != 1 {
		t.Fatalf("reservas = %d, se quería 1", len(reservas))
	}
	if e.avisos.total() != 1 {
		t.Fatalf("avisos = %d, se quería 1 para garita", e.avisos.total())
	}
}

func TestReservarVentanaOcupada(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))

	if _, err := e.servicio.Reservar(e.pedido("ABC123", hora(9, 0), hora(11, 0)), creador); err != nil {
		t.Fatalf("primera reserva: %v", err)
	}
	_, err := e.servicio.Reservar(e.pedido("ABC123", hora(10, 0), hora(12, 0)), creador)
	if !errors.Is(err, models.ErrConflicto) {
		t.Fatalf("se esperaba ErrConflicto, llegó %v", err)
	}

	todas, _ := e.solicitudes.Listar("", "", 100, 0)
	if len(todas) != 1 {
		t.Fatalf("solicitudes = %d, el intento perdedor no debe dejar rastro", len(todas))
	}
}

func TestReservarEspaldaConEspalda(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))

	if _, err := e.servicio.Reservar(e.pedido("ABC123", hora(9, 0), hora(11, 0)), creador); err != nil {
		t.Fatalf("primera reserva: %v", err)
	}
	// El fin es exclusivo: una reserva que arranca justo al terminar la
	// anterior es legal.
	if _, err := e.servicio.Reservar(e.pedido("ABC123", hora(11, 0), hora(13, 0)), creador); err != nil {
		t.Fatalf("reserva espalda con espalda: %v", err)
	}
}

func TestReservarRollbackTransitorio(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))
	e.reservas.fallaCrear = fmt.Errorf("%w: conexión caída", models.ErrAlmacen)

	_, err := e.servicio.Reservar(e.pedido("ABC123", hora(9, 0), hora(11, 0)), creador)
	if !errors.Is(err, models.ErrAlmacen) {
		t.Fatalf("se esperaba ErrAlmacen, llegó %v", err)
	}
	if errors.Is(err, models.ErrConflicto) {
		t.Fatalf("una falla transitoria no debe reportarse como conflicto")
	}

	todas, _ := e.solicitudes.Listar("", "", 100, 0)
	if len(todas) != 0 {
		t.Fatalf("la compensación debía borrar la solicitud, quedan %d", len(todas))
	}
}

func TestReservarRollbackConflicto(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))
	e.reservas.fallaCrear = fmt.Errorf("%w: exclusión violada", models.ErrConflicto)

	_, err := e.servicio.Reservar(e.pedido("ABC123", hora(9, 0), hora(11, 0)), creador)
	if !errors.Is(err, models.ErrConflicto) {
		t.Fatalf("se esperaba ErrConflicto, llegó %v", err)
	}
	todas, _ := e.solicitudes.Listar("", "", 100, 0)
	if len(todas) != 0 {
		t.Fatalf("la compensación debía borrar la solicitud, quedan %d", len(todas))
	}
}

func TestReservarSinVolante(t *testing.T) {
	v := camioneta("XYZ789")
	v.Volante = false
	e := armarEntorno(v)

	_, err := e.servicio.Reservar(e.pedido("XYZ789", hora(9, 0), hora(11, 0)), creador)
	if !errors.Is(err, models.ErrValidacion) {
		t.Fatalf("se esperaba ErrValidacion por autoservicio, llegó %v", err)
	}
}

func TestReservarPlacaInvalida(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))

	_, err := e.servicio.Reservar(e.pedido("AB-123!", hora(9, 0), hora(11, 0)), creador)
	if !errors.Is(err, models.ErrValidacion) {
		t.Fatalf("se esperaba ErrValidacion, llegó %v", err)
	}
}

func sembrarPendiente(e *entorno, id string) models.Solicitud {
	s := models.Solicitud{
		ID:                   id,
		SolicitanteNombre:    "Luis Rojas",
		SolicitanteDocumento: "87654321",
		Origen:               "Oficina",
		Destino:              "Puerto",
		Ventana:              models.Ventana{Inicio: hora(14, 0), Fin: hora(17, 0)},
		Estado:               models.SolicitudPendiente,
		CreadorID:            3,
		CreadorNombre:        "Luis Rojas",
		CreadorArea:          "operaciones",
	}
	e.solicitudes.sembrar(s)
	return s
}

func TestAsignarPendiente(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))
	sembrarPendiente(e, "sol-1")

	recogida := hora(15, 0)
	s, err := e.servicio.Asignar("sol-1", models.AsignarRequest{Placa: "ABC123", HoraRecogida: &recogida})
	if err != nil {
		t.Fatalf("Asignar: %v", err)
	}
	if s.Estado != models.SolicitudReservada {
		t.Fatalf("estado = %s, se quería reservada", s.Estado)
	}
	if !s.Ventana.Inicio.Equal(recogida) {
		t.Fatalf("inicio = %v, la hora de recogida debía ajustar la ventana", s.Ventana.Inicio)
	}
	reservas, _ := e.reservas.ListarPorSolicitud("sol-1")
	if len(reservas) != 1 {
		t.Fatalf("reservas = %d, se quería 1", len(reservas))
	}
}

func TestAsignarRestauraEnFalla(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))
	sembrarPendiente(e, "sol-1")
	e.reservas.fallaCrear = fmt.Errorf("%w: conexión caída", models.ErrAlmacen)

	if _, err := e.servicio.Asignar("sol-1", models.AsignarRequest{Placa: "ABC123"}); err == nil {
		t.Fatalf("se esperaba falla")
	}

	s, err := e.solicitudes.BuscarPorID("sol-1")
	if err != nil {
		t.Fatalf("la solicitud existente no debe borrarse: %v", err)
	}
	if s.Estado != models.SolicitudPendiente || s.Placa != "" {
		t.Fatalf("la compensación debía restaurar pendiente sin placa, quedó %s placa %q", s.Estado, s.Placa)
	}
}

func TestAsignarNoPendiente(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))
	s, err := e.servicio.Reservar(e.pedido("ABC123", hora(9, 0), hora(11, 0)), creador)
	if err != nil {
		t.Fatalf("Reservar: %v", err)
	}

	_, err = e.servicio.Asignar(s.ID, models.AsignarRequest{Placa: "ABC123"})
	if !errors.Is(err, models.ErrNoEncontrado) {
		t.Fatalf("asignar sobre una reservada debía dar ErrNoEncontrado, llegó %v", err)
	}
}

func TestRechazarLiberaVentana(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))
	sembrarPendiente(e, "sol-1")

	s, err := e.servicio.Rechazar("sol-1")
	if err != nil {
		t.Fatalf("Rechazar: %v", err)
	}
	if s.Estado != models.SolicitudRechazada {
		t.Fatalf("estado = %s, se quería rechazada", s.Estado)
	}
}

func TestCancelarLiberaYNoRepite(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))
	s, err := e.servicio.Reservar(e.pedido("ABC123", hora(9, 0), hora(11, 0)), creador)
	if err != nil {
		t.Fatalf("Reservar: %v", err)
	}

	cancelada, err := e.servicio.Cancelar(s.ID)
	if err != nil {
		t.Fatalf("Cancelar: %v", err)
	}
	if cancelada.Estado != models.SolicitudCancelada {
		t.Fatalf("estado = %s, se quería cancelada", cancelada.Estado)
	}

	// La ventana completa vuelve a estar libre de inmediato.
	libres, err := e.disponibilidad.Consultar(models.Ventana{Inicio: hora(9, 0), Fin: hora(11, 0)})
	if err != nil {
		t.Fatalf("Consultar: %v", err)
	}
	if len(libres) != 1 || libres[0] != "ABC123" {
		t.Fatalf("libres = %v, cancelar debía liberar la placa", libres)
	}

	// Cancelar dos veces no es idempotente silencioso: la segunda falla.
	if _, err := e.servicio.Cancelar(s.ID); !errors.Is(err, models.ErrNoEncontrado) {
		t.Fatalf("segunda cancelación debía dar ErrNoEncontrado, llegó %v", err)
	}
}

func TestEntregarYDevolverTrunca(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))
	s, err := e.servicio.Reservar(e.pedido("ABC123", hora(9, 0), hora(17, 0)), creador)
	if err != nil {
		t.Fatalf("Reservar: %v", err)
	}

	e.reloj = hora(9, 5)
	entregada, err := e.servicio.Entregar(s.ID)
	if err != nil {
		t.Fatalf("Entregar: %v", err)
	}
	if entregada.Estado != models.SolicitudEnUso {
		t.Fatalf("estado = %s, se quería en_uso", entregada.Estado)
	}
	if entregada.EntregadaEn == nil || !entregada.EntregadaEn.Equal(hora(9, 5)) {
		t.Fatalf("entregada_en no quedó sellada con la hora de garita")
	}

	// Devolución anticipada a mediodía: el resto de la ventana se libera.
	e.reloj = hora(12, 0)
	devuelta, err := e.servicio.Devolver(s.ID)
	if err != nil {
		t.Fatalf("Devolver: %v", err)
	}
	if devuelta.Estado != models.SolicitudCerrada {
		t.Fatalf("estado = %s, se quería cerrada", devuelta.Estado)
	}
	if devuelta.DevueltaEn == nil || !devuelta.DevueltaEn.Equal(hora(12, 0)) {
		t.Fatalf("devuelta_en no quedó sellada con la hora de garita")
	}

	reservas, _ := e.reservas.ListarPorSolicitud(s.ID)
	if len(reservas) != 1 || !reservas[0].Ventana.Fin.Equal(hora(12, 0)) {
		t.Fatalf("la reserva debía quedar truncada a las 12:00, quedó %+v", reservas)
	}

	libres, err := e.disponibilidad.Consultar(models.Ventana{Inicio: hora(13, 0), Fin: hora(15, 0)})
	if err != nil {
		t.Fatalf("Consultar: %v", err)
	}
	if len(libres) != 1 || libres[0] != "ABC123" {
		t.Fatalf("libres = %v, la tarde debía quedar reservable tras la devolución", libres)
	}
}

func TestEntregarRequiereReservada(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))
	sembrarPendiente(e, "sol-1")

	if _, err := e.servicio.Entregar("sol-1"); !errors.Is(err, models.ErrNoEncontrado) {
		t.Fatalf("entregar una pendiente debía dar ErrNoEncontrado, llegó %v", err)
	}
}

func TestDevolverRequiereEnUso(t *testing.T) {
	e := armarEntorno(camioneta("ABC123"))
	s, err := e.servicio.Reservar(e.pedido("ABC123", hora(9, 0), hora(11, 0)), creador)
	if err != nil {
		t.Fatalf("Reservar: %v", err)
	}

	if _, err := e.servicio.Devolver(s.ID); !errors.Is(err, models.ErrNoEncontrado) {
		t.Fatalf("devolver sin entrega previa debía dar ErrNoEncontrado, llegó %v", err)
	}
}
