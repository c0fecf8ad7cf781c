package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"flota/pkg/models"
)

// Fakes en memoria de los repositorios. Comparten estado entre sí igual
// que las tablas reales: reservasFake consulta el estado de la solicitud
// dueña en solicitudesFake, y su Crear arbitra traslapes placa/ventana
// como lo hace el constraint de exclusión del esquema.

type flotaFake struct {
	mu        sync.Mutex
	vehiculos map[string]models.Vehiculo
}

func nuevaFlotaFake(vehiculos ...models.Vehiculo) *flotaFake {
	f := &flotaFake{vehiculos: map[string]models.Vehiculo{}}
	for _, v := range vehiculos {
		f.vehiculos[v.Placa] = v
	}
	return f
}

func (f *flotaFake) Listar(estado string) ([]models.Vehiculo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lista := []models.Vehiculo{}
	for _, v := range f.vehiculos {
		if estado == "" || string(v.Estado) == estado {
			lista = append(lista, v)
		}
	}
	sort.Slice(lista, func(i, j int) bool { return lista[i].Placa < lista[j].Placa })
	return lista, nil
}

func (f *flotaFake) BuscarPorPlaca(placa string) (models.Vehiculo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehiculos[placa]
	if !ok {
		return models.Vehiculo{}, fmt.Errorf("%w: vehículo %s", models.ErrNoEncontrado, placa)
	}
	return v, nil
}

func (f *flotaFake) PlacasDisponibles() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	placas := []string{}
	for _, v := range f.vehiculos {
		if v.Estado == models.VehiculoDisponible {
			placas = append(placas, v.Placa)
		}
	}
	sort.Strings(placas)
	return placas, nil
}

func (f *flotaFake) Crear(v models.Vehiculo) (models.Vehiculo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehiculos[v.Placa]; ok {
		return models.Vehiculo{}, fmt.Errorf("%w: placa %s duplicada", models.ErrConflicto, v.Placa)
	}
	f.vehiculos[v.Placa] = v
	return v, nil
}

func (f *flotaFake) Actualizar(placa string, v models.Vehiculo) (models.Vehiculo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	actual, ok := f.vehiculos[placa]
	if !ok {
		return models.Vehiculo{}, fmt.Errorf("%w: vehículo %s", models.ErrNoEncontrado, placa)
	}
	v.Placa = actual.Placa
	v.Estado = actual.Estado
	f.vehiculos[placa] = v
	return v, nil
}

func (f *flotaFake) CambiarEstado(placa string, estado models.EstadoVehiculo) (models.Vehiculo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehiculos[placa]
	if !ok {
		return models.Vehiculo{}, fmt.Errorf("%w: vehículo %s", models.ErrNoEncontrado, placa)
	}
	v.Estado = estado
	f.vehiculos[placa] = v
	return v, nil
}

func (f *flotaFake) Eliminar(placa string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehiculos[placa]; !ok {
		return fmt.Errorf("%w: vehículo %s", models.ErrNoEncontrado, placa)
	}
	delete(f.vehiculos, placa)
	return nil
}

type solicitudesFake struct {
	mu    sync.Mutex
	m     map[string]models.Solicitud
	ahora func() time.Time
}

func nuevasSolicitudesFake(ahora func() time.Time) *solicitudesFake {
	return &solicitudesFake{m: map[string]models.Solicitud{}, ahora: ahora}
}

func (f *solicitudesFake) sembrar(s models.Solicitud) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[s.ID] = s
}

func (f *solicitudesFake) Listar(estado, placa string, limit, offset int) ([]models.Solicitud, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lista := []models.Solicitud{}
	for _, s := range f.m {
		if estado != "" && string(s.Estado) != estado {
			continue
		}
		if placa != "" && s.Placa != placa {
			continue
		}
		lista = append(lista, s)
	}
	sort.Slice(lista, func(i, j int) bool { return lista[i].ID < lista[j].ID })
	return lista, nil
}

func (f *solicitudesFake) BuscarPorID(id string) (models.Solicitud, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.m[id]
	if !ok {
		return models.Solicitud{}, fmt.Errorf("%w: solicitud %s", models.ErrNoEncontrado, id)
	}
	return s, nil
}

func (f *solicitudesFake) Crear(s models.Solicitud) (models.Solicitud, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[s.ID]; ok {
		return models.Solicitud{}, fmt.Errorf("%w: solicitud %s duplicada", models.ErrConflicto, s.ID)
	}
	s.CreatedAt = f.ahora()
	s.UpdatedAt = s.CreatedAt
	f.m[s.ID] = s
	return s, nil
}

func (f *solicitudesFake) Eliminar(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[id]; !ok {
		return fmt.Errorf("%w: solicitud %s", models.ErrNoEncontrado, id)
	}
	delete(f.m, id)
	return nil
}

// Transicionar imita el update condicional: cero filas cuando el estado
// almacenado ya no es el esperado.
func (f *solicitudesFake) Transicionar(id string, de, a models.EstadoSolicitud, s models.Solicitud) (models.Solicitud, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	actual, ok := f.m[id]
	if !ok || actual.Estado != de {
		return models.Solicitud{}, fmt.Errorf("%w: solicitud %s en estado %s", models.ErrNoEncontrado, id, actual.Estado)
	}
	actual.Estado = a
	actual.Placa = s.Placa
	actual.Ventana = s.Ventana
	actual.EntregadaEn = s.EntregadaEn
	actual.DevueltaEn = s.DevueltaEn
	actual.UpdatedAt = f.ahora()
	f.m[id] = actual
	return actual, nil
}

func (f *solicitudesFake) Restaurar(id string, estado models.EstadoSolicitud, placa string, v models.Ventana) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	actual, ok := f.m[id]
	if !ok {
		return fmt.Errorf("%w: solicitud %s", models.ErrNoEncontrado, id)
	}
	actual.Estado = estado
	actual.Placa = placa
	actual.Ventana = v
	actual.UpdatedAt = f.ahora()
	f.m[id] = actual
	return nil
}

func (f *solicitudesFake) MarcarVencidas() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ahora := f.ahora()
	ids := []string{}
	for id, s := range f.m {
		if s.Estado != models.SolicitudReservada && s.Estado != models.SolicitudEnUso {
			continue
		}
		if s.Ventana.Fin.After(ahora) {
			continue
		}
		s.Estado = models.SolicitudVencida
		s.UpdatedAt = ahora
		f.m[id] = s
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type reservasFake struct {
	mu          sync.Mutex
	reservas    []models.Reserva
	solicitudes *solicitudesFake
	// fallaCrear fuerza el fallo del insert dependiente para ejercitar
	// la compensación del servicio.
	fallaCrear error
	// consultas cuenta llamadas a Ocupacion, para verificar el corte
	// temprano con flota vacía.
	consultas int
}

func nuevasReservasFake(solicitudes *solicitudesFake) *reservasFake {
	return &reservasFake{solicitudes: solicitudes}
}

func (f *reservasFake) Ocupacion(inicio, fin time.Time) ([]models.ReservaOcupacion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consultas++
	consulta := models.Ventana{Inicio: inicio, Fin: fin}
	ocupacion := []models.ReservaOcupacion{}
	for _, r := range f.reservas {
		if !r.Ventana.Traslapa(consulta) {
			continue
		}
		o := models.ReservaOcupacion{Placa: r.Placa, Ventana: r.Ventana, SolicitudID: r.SolicitudID}
		if dueno, err := f.solicitudes.BuscarPorID(r.SolicitudID); err != nil {
			o.SinDueno = true
		} else {
			o.EstadoDueno = dueno.Estado
		}
		ocupacion = append(ocupacion, o)
	}
	return ocupacion, nil
}

// Crear arbitra igual que el constraint de exclusión: el primer insert
// por placa y ventana gana, el siguiente traslape recibe conflicto.
func (f *reservasFake) Crear(res models.Reserva) (models.Reserva, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fallaCrear != nil {
		return models.Reserva{}, f.fallaCrear
	}
	for _, r := range f.reservas {
		if r.Placa == res.Placa && r.Ventana.Traslapa(res.Ventana) {
			return models.Reserva{}, fmt.Errorf("%w: traslape de placa y ventana", models.ErrConflicto)
		}
	}
	res.CreatedAt = f.solicitudes.ahora()
	f.reservas = append(f.reservas, res)
	return res, nil
}

func (f *reservasFake) EliminarPorSolicitud(solicitudID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	quedan := f.reservas[:0]
	for _, r := range f.reservas {
		if r.SolicitudID != solicitudID {
			quedan = append(quedan, r)
		}
	}
	f.reservas = quedan
	return nil
}

func (f *reservasFake) TruncarFin(solicitudID string, fin time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.reservas {
		if r.SolicitudID != solicitudID || !r.Ventana.Fin.After(fin) {
			continue
		}
		if fin.Before(r.Ventana.Inicio) {
			f.reservas[i].Ventana.Fin = r.Ventana.Inicio
		} else {
			f.reservas[i].Ventana.Fin = fin
		}
	}
	return nil
}

func (f *reservasFake) ListarPorSolicitud(solicitudID string) ([]models.Reserva, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lista := []models.Reserva{}
	for _, r := range f.reservas {
		if r.SolicitudID == solicitudID {
			lista = append(lista, r)
		}
	}
	return lista, nil
}

// avisosFake acumula los avisos emitidos para poder afirmarlos.
type avisosFake struct {
	mu     sync.Mutex
	avisos []models.Aviso
}

func (f *avisosFake) Notificar(a models.Aviso) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.avisos = append(f.avisos, a)
}

func (f *avisosFake) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.avisos)
}
