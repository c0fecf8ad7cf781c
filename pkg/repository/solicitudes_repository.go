package repository

import (
	"database/sql"

	"flota/pkg/models"

	"github.com/lib/pq"
)

type SolicitudesRepository interface {
	Listar(estado, placa string, limit, offset int) ([]models.Solicitud, error)
	BuscarPorID(id string) (models.Solicitud, error)
	Crear(s models.Solicitud) (models.Solicitud, error)
	// Eliminar borra la fila; es el paso de compensación cuando el
	// insert de la reserva dependiente falla.
	Eliminar(id string) error
	// Transicionar es un update condicional de una sola fila: solo
	// aplica si la solicitud sigue en el estado esperado. Cero filas
	// devuelve ErrNoEncontrado (id inexistente o estado equivocado).
	Transicionar(id string, de, a models.EstadoSolicitud, s models.Solicitud) (models.Solicitud, error)
	// Restaurar revierte estado, placa y ventana a sus valores previos;
	// es la compensación del flujo de asignación sobre solicitud
	// existente.
	Restaurar(id string, estado models.EstadoSolicitud, placa string, v models.Ventana) error
	// MarcarVencidas pasa a vencida toda solicitud reservada o en uso
	// cuyo fin de uso ya quedó atrás. Idempotente; devuelve los ids.
	MarcarVencidas() ([]string, error)
}

type solicitudesRepository struct {
	db *sql.DB
}

func NewSolicitudesRepository(db *sql.DB) SolicitudesRepository {
	return &solicitudesRepository{db: db}
}

const columnasSolicitud = `id, solicitante_nombre, solicitante_documento, origen, destino,
	COALESCE(motivo,''), inicio_uso, fin_uso, estado, COALESCE(placa,''),
	creador_id, creador_nombre, COALESCE(creador_area,''), entregada_en, devuelta_en,
	created_at, updated_at`

func escanearSolicitud(fila interface{ Scan(...any) error }) (models.Solicitud, error) {
	var s models.Solicitud
	var entregada, devuelta sql.NullTime
	err := fila.Scan(&s.ID, &s.SolicitanteNombre, &s.SolicitanteDocumento, &s.Origen, &s.Destino,
		&s.Motivo, &s.Ventana.Inicio, &s.Ventana.Fin, &s.Estado, &s.Placa,
		&s.CreadorID, &s.CreadorNombre, &s.CreadorArea, &entregada, &devuelta,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	if entregada.Valid {
		t := entregada.Time
		s.EntregadaEn = &t
	}
	if devuelta.Valid {
		t := devuelta.Time
		s.DevueltaEn = &t
	}
	return s, nil
}

func (r *solicitudesRepository) Listar(estado, placa string, limit, offset int) ([]models.Solicitud, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	consulta := `SELECT ` + columnasSolicitud + ` FROM solicitudes`
	args := []any{}
	filtros := ``
	if estado != "" {
		args = append(args, estado)
		filtros = ` WHERE estado = $1`
	}
	if placa != "" {
		args = append(args, placa)
		if filtros == "" {
			filtros = ` WHERE placa = $1`
		} else {
			filtros += ` AND placa = $2`
		}
	}
	args = append(args, limit, offset)
	consulta += filtros + ` ORDER BY created_at DESC LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := r.db.Query(consulta, args...)
	if err != nil {
		return nil, traducir(err)
	}
	defer rows.Close()

	lista := []models.Solicitud{}
	for rows.Next() {
		s, err := escanearSolicitud(rows)
		if err != nil {
			continue
		}
		lista = append(lista, s)
	}
	return lista, nil
}

func (r *solicitudesRepository) BuscarPorID(id string) (models.Solicitud, error) {
	fila := r.db.QueryRow(`SELECT `+columnasSolicitud+` FROM solicitudes WHERE id = $1`, id)
	s, err := escanearSolicitud(fila)
	if err != nil {
		return s, traducir(err)
	}
	return s, nil
}

func (r *solicitudesRepository) Crear(s models.Solicitud) (models.Solicitud, error) {
	fila := r.db.QueryRow(`
		INSERT INTO solicitudes (id, solicitante_nombre, solicitante_documento, origen, destino, motivo,
			inicio_uso, fin_uso, estado, placa, creador_id, creador_nombre, creador_area)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, $8, $9, NULLIF($10,''), $11, $12, NULLIF($13,''))
		RETURNING `+columnasSolicitud,
		s.ID, s.SolicitanteNombre, s.SolicitanteDocumento, s.Origen, s.Destino, s.Motivo,
		s.Ventana.Inicio, s.Ventana.Fin, s.Estado, s.Placa, s.CreadorID, s.CreadorNombre, s.CreadorArea)
	creada, err := escanearSolicitud(fila)
	if err != nil {
		return creada, traducir(err)
	}
	return creada, nil
}

func (r *solicitudesRepository) Eliminar(id string) error {
	res, err := r.db.Exec(`DELETE FROM solicitudes WHERE id = $1`, id)
	if err != nil {
		return traducir(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return traducir(sql.ErrNoRows)
	}
	return nil
}

func (r *solicitudesRepository) Transicionar(id string, de, a models.EstadoSolicitud, s models.Solicitud) (models.Solicitud, error) {
	fila := r.db.QueryRow(`
		UPDATE solicitudes
		SET estado = $3, placa = NULLIF($4,''), inicio_uso = $5, fin_uso = $6,
		    entregada_en = $7, devuelta_en = $8, updated_at = NOW()
		WHERE id = $1 AND estado = $2
		RETURNING `+columnasSolicitud,
		id, de, a, s.Placa, s.Ventana.Inicio, s.Ventana.Fin, s.EntregadaEn, s.DevueltaEn)
	actualizada, err := escanearSolicitud(fila)
	if err != nil {
		return actualizada, traducir(err)
	}
	return actualizada, nil
}

func (r *solicitudesRepository) Restaurar(id string, estado models.EstadoSolicitud, placa string, v models.Ventana) error {
	_, err := r.db.Exec(`
		UPDATE solicitudes
		SET estado = $2, placa = NULLIF($3,''), inicio_uso = $4, fin_uso = $5, updated_at = NOW()
		WHERE id = $1`, id, estado, placa, v.Inicio, v.Fin)
	return traducir(err)
}

func (r *solicitudesRepository) MarcarVencidas() ([]string, error) {
	rows, err := r.db.Query(`
		UPDATE solicitudes
		SET estado = $1, updated_at = NOW()
		WHERE estado = ANY($2::text[]) AND fin_uso <= NOW()
		RETURNING id`,
		models.SolicitudVencida,
		pq.Array([]string{string(models.SolicitudReservada), string(models.SolicitudEnUso)}))
	if err != nil {
		return nil, traducir(err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}
