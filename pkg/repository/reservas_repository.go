package repository

import (
	"database/sql"
	"time"

	"flota/pkg/models"
)

type ReservasRepository interface {
	// Ocupacion devuelve toda reserva cuya ventana traslapa [inicio, fin)
	// con traslape estricto semiabierto (inicio_uso < fin AND fin_uso >
	// inicio), junto con el estado de su solicitud dueña. El LEFT JOIN
	// deja detectar reservas huérfanas, que clasifican como bloqueantes.
	Ocupacion(inicio, fin time.Time) ([]models.ReservaOcupacion, error)
	Crear(res models.Reserva) (models.Reserva, error)
	// EliminarPorSolicitud libera por completo la ventana (rechazo o
	// cancelación): la placa vuelve a ser reservable de inmediato.
	EliminarPorSolicitud(solicitudID string) error
	// TruncarFin recorta el fin de uso de las reservas de la solicitud a
	// la hora real de devolución; el resto de la ventana queda libre sin
	// perder el registro histórico.
	TruncarFin(solicitudID string, fin time.Time) error
	ListarPorSolicitud(solicitudID string) ([]models.Reserva, error)
}

type reservasRepository struct {
	db *sql.DB
}

func NewReservasRepository(db *sql.DB) ReservasRepository {
	return &reservasRepository{db: db}
}

func (r *reservasRepository) Ocupacion(inicio, fin time.Time) ([]models.ReservaOcupacion, error) {
	rows, err := r.db.Query(`
		SELECT r.placa, r.inicio_uso, r.fin_uso, r.solicitud_id, s.estado
		FROM reservas r
		LEFT JOIN solicitudes s ON s.id = r.solicitud_id
		WHERE r.inicio_uso < $2 AND r.fin_uso > $1`,
		inicio, fin)
	if err != nil {
		return nil, traducir(err)
	}
	defer rows.Close()

	ocupacion := []models.ReservaOcupacion{}
	for rows.Next() {
		var o models.ReservaOcupacion
		var estado sql.NullString
		if err := rows.Scan(&o.Placa, &o.Ventana.Inicio, &o.Ventana.Fin, &o.SolicitudID, &estado); err != nil {
			continue
		}
		if estado.Valid {
			o.EstadoDueno = models.EstadoSolicitud(estado.String)
		} else {
			o.SinDueno = true
		}
		ocupacion = append(ocupacion, o)
	}
	return ocupacion, nil
}

func (r *reservasRepository) Crear(res models.Reserva) (models.Reserva, error) {
	err := r.db.QueryRow(`
		INSERT INTO reservas (id, placa, inicio_uso, fin_uso, solicitud_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, placa, inicio_uso, fin_uso, solicitud_id, created_at`,
		res.ID, res.Placa, res.Ventana.Inicio, res.Ventana.Fin, res.SolicitudID,
	).Scan(&res.ID, &res.Placa, &res.Ventana.Inicio, &res.Ventana.Fin, &res.SolicitudID, &res.CreatedAt)
	if err != nil {
		return res, traducir(err)
	}
	return res, nil
}

func (r *reservasRepository) EliminarPorSolicitud(solicitudID string) error {
	_, err := r.db.Exec(`DELETE FROM reservas WHERE solicitud_id = $1`, solicitudID)
	return traducir(err)
}

func (r *reservasRepository) TruncarFin(solicitudID string, fin time.Time) error {
	// GREATEST evita un rango invertido si la devolución ocurre antes
	// del inicio planificado; la ventana queda vacía y deja de ocupar.
	_, err := r.db.Exec(`
		UPDATE reservas SET fin_uso = GREATEST(inicio_uso, $2)
		WHERE solicitud_id = $1 AND fin_uso > $2`,
		solicitudID, fin)
	return traducir(err)
}

func (r *reservasRepository) ListarPorSolicitud(solicitudID string) ([]models.Reserva, error) {
	rows, err := r.db.Query(`
		SELECT id, placa, inicio_uso, fin_uso, solicitud_id, created_at
		FROM reservas WHERE solicitud_id = $1
		ORDER BY created_at ASC`, solicitudID)
	if err != nil {
		return nil, traducir(err)
	}
	defer rows.Close()

	lista := []models.Reserva{}
	for rows.Next() {
		var res models.Reserva
		if err := rows.Scan(&res.ID, &res.Placa, &res.Ventana.Inicio, &res.Ventana.Fin, &res.SolicitudID, &res.CreatedAt); err == nil {
			lista = append(lista, res)
		}
	}
	return lista, nil
}
