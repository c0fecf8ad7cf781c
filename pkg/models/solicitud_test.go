package models

import (
	"testing"
	"time"
)

func TestPuedeTransicionar(t *testing.T) {
	if !PuedeTransicionar(SolicitudPendiente, SolicitudReservada) {
		t.Fatalf("se esperaba pendiente -> reservada permitida")
	}
	if !PuedeTransicionar(SolicitudReservada, SolicitudEnUso) {
		t.Fatalf("se esperaba reservada -> en_uso permitida")
	}
	if !PuedeTransicionar(SolicitudEnUso, SolicitudCerrada) {
		t.Fatalf("se esperaba en_uso -> cerrada permitida")
	}
	if PuedeTransicionar(SolicitudCerrada, SolicitudReservada) {
		t.Fatalf("cerrada es terminal, no admite salidas")
	}
	if PuedeTransicionar(SolicitudEnUso, SolicitudCancelada) {
		t.Fatalf("una solicitud en uso no se cancela, se devuelve")
	}
	if PuedeTransicionar(SolicitudPendiente, SolicitudCerrada) {
		t.Fatalf("no hay atajo pendiente -> cerrada")
	}
}

func TestActiva(t *testing.T) {
	activos := []EstadoSolicitud{SolicitudPendiente, SolicitudAsignada, SolicitudReservada, SolicitudEnUso}
	for _, e := range activos {
		if !e.Activa() {
			t.Fatalf("estado %s debería reclamar capacidad", e)
		}
	}
	inactivos := []EstadoSolicitud{SolicitudRechazada, SolicitudCancelada, SolicitudCerrada, SolicitudVencida}
	for _, e := range inactivos {
		if e.Activa() {
			t.Fatalf("estado %s no debería reclamar capacidad", e)
		}
	}
	// Un estado desconocido bloquea: se falla hacia ocupado.
	if !EstadoSolicitud("misterioso").Activa() {
		t.Fatalf("estado desconocido debe clasificar como activo")
	}
}

func TestAplicarTransicionSellos(t *testing.T) {
	ahora := time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)
	s := &Solicitud{Estado: SolicitudReservada}

	if err := s.AplicarTransicion(SolicitudEnUso, ahora); err != nil {
		t.Fatalf("AplicarTransicion: %v", err)
	}
	if s.EntregadaEn == nil || !s.EntregadaEn.Equal(ahora) {
		t.Fatalf("entregada_en no quedó sellada")
	}

	luego := ahora.Add(2 * time.Hour)
	if err := s.AplicarTransicion(SolicitudCerrada, luego); err != nil {
		t.Fatalf("AplicarTransicion: %v", err)
	}
	if s.DevueltaEn == nil || !s.DevueltaEn.Equal(luego) {
		t.Fatalf("devuelta_en no quedó sellada")
	}
	if !s.EntregadaEn.Equal(ahora) {
		t.Fatalf("entregada_en no debe re-sellarse")
	}

	if err := s.AplicarTransicion(SolicitudReservada, luego); err == nil {
		t.Fatalf("se esperaba error al salir de un estado terminal")
	}
}
