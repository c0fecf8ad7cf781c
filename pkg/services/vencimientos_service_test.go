package services

import (
	"reflect"
	"testing"

	"flota/pkg/models"
)

func TestBarrerMarcaSoloVencidas(t *testing.T) {
	e := armarEntorno(camioneta("AAA111"))
	e.reloj = hora(13, 0)

	// Fin ya pasado en estados que reclaman capacidad: deben vencer.
	sembrarReserva(e, "sol-1", "AAA111", models.SolicitudReservada,
		models.Ventana{Inicio: hora(9, 0), Fin: hora(11, 0)})
	sembrarReserva(e, "sol-2", "AAA111", models.SolicitudEnUso,
		models.Ventana{Inicio: hora(11, 0), Fin: hora(12, 0)})
	// Fin en el futuro: intocable.
	sembrarReserva(e, "sol-3", "AAA111", models.SolicitudReservada,
		models.Ventana{Inicio: hora(14, 0), Fin: hora(16, 0)})
	// Terminal con fin pasado: intocable.
	sembrarReserva(e, "sol-4", "AAA111", models.SolicitudCerrada,
		models.Ventana{Inicio: hora(7, 0), Fin: hora(8, 0)})

	vencimientos := NewVencimientosService(e.solicitudes, nil, e.avisos)

	ids, err := vencimientos.Barrer()
	if err != nil {
		t.Fatalf("Barrer: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"sol-1", "sol-2"}) {
		t.Fatalf("ids = %v, se quería [sol-1 sol-2]", ids)
	}
	for _, id := range ids {
		s, _ := e.solicitudes.BuscarPorID(id)
		if s.Estado != models.SolicitudVencida {
			t.Fatalf("solicitud %s quedó en %s, se quería vencida", id, s.Estado)
		}
	}
	intacta, _ := e.solicitudes.BuscarPorID("sol-3")
	if intacta.Estado != models.SolicitudReservada {
		t.Fatalf("sol-3 con fin futuro no debía tocarse, quedó %s", intacta.Estado)
	}
	if e.avisos.total() != 1 {
		t.Fatalf("avisos = %d, se quería 1 para admin", e.avisos.total())
	}

	// Idempotente: un segundo barrido inmediato no encuentra nada.
	ids, err = vencimientos.Barrer()
	if err != nil {
		t.Fatalf("Barrer: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("segundo barrido devolvió %v, se quería vacío", ids)
	}
	if e.avisos.total() != 1 {
		t.Fatalf("un barrido vacío no debe emitir avisos")
	}
}

func TestBarrerLiberaDisponibilidad(t *testing.T) {
	e := armarEntorno(camioneta("AAA111"))
	e.reloj = hora(13, 0)
	sembrarReserva(e, "sol-1", "AAA111", models.SolicitudReservada,
		models.Ventana{Inicio: hora(9, 0), Fin: hora(11, 0)})

	// Antes del barrido la dueña sigue activa y su reserva bloquea.
	libres, err := e.disponibilidad.Consultar(models.Ventana{Inicio: hora(10, 0), Fin: hora(11, 0)})
	if err != nil {
		t.Fatalf("Consultar: %v", err)
	}
	if len(libres) != 0 {
		t.Fatalf("libres = %v, la reservada aún debía bloquear", libres)
	}

	vencimientos := NewVencimientosService(e.solicitudes, nil, e.avisos)
	if _, err := vencimientos.Barrer(); err != nil {
		t.Fatalf("Barrer: %v", err)
	}

	libres, err = e.disponibilidad.Consultar(models.Ventana{Inicio: hora(10, 0), Fin: hora(11, 0)})
	if err != nil {
		t.Fatalf("Consultar: %v", err)
	}
	if !reflect.DeepEqual(libres, []string{"AAA111"}) {
		t.Fatalf("libres = %v, la vencida ya no debía bloquear", libres)
	}
}
