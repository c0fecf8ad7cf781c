package models

import (
	"fmt"
	"time"
)

// Horario de operación de la flota (hora local).
const (
	HoraApertura = 7
	HoraCierre   = 20
)

// Ventana es un intervalo semiabierto [Inicio, Fin) durante el cual una
// camioneta queda reclamada.
type Ventana struct {
	Inicio time.Time `json:"inicio_uso"`
	Fin    time.Time `json:"fin_uso"`
}

// Traslapa usa intervalos semiabiertos: que el fin de una ventana
// coincida exactamente con el inicio de otra NO cuenta como traslape
// (reservas espalda con espalda son legales).
func (v Ventana) Traslapa(o Ventana) bool {
	return v.Inicio.Before(o.Fin) && o.Inicio.Before(v.Fin)
}

// Validar aplica las reglas de entrada del lado del caller: ventana no
// invertida ni vacía, dentro del mismo día, dentro del horario de
// operación y sin quedar en el pasado. Corre antes de cualquier llamada
// remota; el resolver de disponibilidad asume ventanas ya validadas.
func (v Ventana) Validar(ahora time.Time) error {
	if v.Inicio.IsZero() || v.Fin.IsZero() {
		return fmt.Errorf("%w: inicio y fin de uso son obligatorios", ErrValidacion)
	}
	if !v.Inicio.Before(v.Fin) {
		return fmt.Errorf("%w: la ventana de uso está invertida o vacía", ErrValidacion)
	}
	ini := v.Inicio.Local()
	fin := v.Fin.Local()
	iy, im, id := ini.Date()
	fy, fm, fd := fin.Date()
	if iy != fy || im != fm || id != fd {
		return fmt.Errorf("%w: la ventana debe estar dentro del mismo día", ErrValidacion)
	}
	if ini.Hour() < HoraApertura {
		return fmt.Errorf("%w: la flota opera desde las %02d:00", ErrValidacion, HoraApertura)
	}
	if fin.Hour() > HoraCierre || (fin.Hour() == HoraCierre && (fin.Minute() > 0 || fin.Second() > 0)) {
		return fmt.Errorf("%w: la flota opera hasta las %02d:00", ErrValidacion, HoraCierre)
	}
	if v.Inicio.Before(ahora.Add(-time.Minute)) {
		return fmt.Errorf("%w: el inicio de uso ya quedó en el pasado", ErrValidacion)
	}
	return nil
}
