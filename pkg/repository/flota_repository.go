package repository

import (
	"database/sql"

	"flota/pkg/models"
)

type FlotaRepository interface {
	Listar(estado string) ([]models.Vehiculo, error)
	BuscarPorPlaca(placa string) (models.Vehiculo, error)
	// PlacasDisponibles devuelve las placas con estado disponible,
	// ordenadas, para el resolver de disponibilidad.
	PlacasDisponibles() ([]string, error)
	Crear(v models.Vehiculo) (models.Vehiculo, error)
	Actualizar(placa string, v models.Vehiculo) (models.Vehiculo, error)
	CambiarEstado(placa string, estado models.EstadoVehiculo) (models.Vehiculo, error)
	Eliminar(placa string) error
}

type flotaRepository struct {
	db *sql.DB
}

func NewFlotaRepository(db *sql.DB) FlotaRepository {
	return &flotaRepository{db: db}
}

const columnasVehiculo = `placa, marca, modelo, color, traccion, revision_tecnica, seguro_vence, estado, volante, created_at, updated_at`

func escanearVehiculo(fila interface{ Scan(...any) error }) (models.Vehiculo, error) {
	var v models.Vehiculo
	var revision, seguro sql.NullTime
	err := fila.Scan(&v.Placa, &v.Marca, &v.Modelo, &v.Color, &v.Traccion,
		&revision, &seguro, &v.Estado, &v.Volante, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return v, err
	}
	if revision.Valid {
		t := revision.Time
		v.RevisionTecnica = &t
	}
	if seguro.Valid {
		t := seguro.Time
		v.SeguroVence = &t
	}
	return v, nil
}

func (r *flotaRepository) Listar(estado string) ([]models.Vehiculo, error) {
	var rows *sql.Rows
	var err error
	if estado != "" {
		rows, err = r.db.Query(`SELECT `+columnasVehiculo+` FROM vehiculos WHERE estado = $1 ORDER BY placa ASC`, estado)
	} else {
		rows, err = r.db.Query(`SELECT ` + columnasVehiculo + ` FROM vehiculos ORDER BY placa ASC`)
	}
	if err != nil {
		return nil, traducir(err)
	}
	defer rows.Close()

	flota := []models.Vehiculo{}
	for rows.Next() {
		v, err := escanearVehiculo(rows)
		if err != nil {
			continue
		}
		flota = append(flota, v)
	}
	return flota, nil
}

func (r *flotaRepository) BuscarPorPlaca(placa string) (models.Vehiculo, error) {
	fila := r.db.QueryRow(`SELECT `+columnasVehiculo+` FROM vehiculos WHERE placa = $1`, placa)
	v, err := escanearVehiculo(fila)
	if err != nil {
		return v, traducir(err)
	}
	return v, nil
}

func (r *flotaRepository) PlacasDisponibles() ([]string, error) {
	rows, err := r.db.Query(`SELECT placa FROM vehiculos WHERE estado = $1 ORDER BY placa ASC`, models.VehiculoDisponible)
	if err != nil {
		return nil, traducir(err)
	}
	defer rows.Close()

	placas := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err == nil {
			placas = append(placas, p)
		}
	}
	return placas, nil
}

func (r *flotaRepository) Crear(v models.Vehiculo) (models.Vehiculo, error) {
	fila := r.db.QueryRow(`
		INSERT INTO vehiculos (placa, marca, modelo, color, traccion, revision_tecnica, seguro_vence, estado, volante)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+columnasVehiculo,
		v.Placa, v.Marca, v.Modelo, v.Color, v.Traccion, v.RevisionTecnica, v.SeguroVence, v.Estado, v.Volante)
	creado, err := escanearVehiculo(fila)
	if err != nil {
		return creado, traducir(err)
	}
	return creado, nil
}

func (r *flotaRepository) Actualizar(placa string, v models.Vehiculo) (models.Vehiculo, error) {
	fila := r.db.QueryRow(`
		UPDATE vehiculos
		SET marca = $2, modelo = $3, color = $4, traccion = $5,
		    revision_tecnica = $6, seguro_vence = $7, volante = $8, updated_at = NOW()
		WHERE placa = $1
		RETURNING `+columnasVehiculo,
		placa, v.Marca, v.Modelo, v.Color, v.Traccion, v.RevisionTecnica, v.SeguroVence, v.Volante)
	actualizado, err := escanearVehiculo(fila)
	if err != nil {
		return actualizado, traducir(err)
	}
	return actualizado, nil
}

func (r *flotaRepository) CambiarEstado(placa string, estado models.EstadoVehiculo) (models.Vehiculo, error) {
	fila := r.db.QueryRow(`
		UPDATE vehiculos SET estado = $2, updated_at = NOW()
		WHERE placa = $1
		RETURNING `+columnasVehiculo, placa, estado)
	v, err := escanearVehiculo(fila)
	if err != nil {
		return v, traducir(err)
	}
	return v, nil
}

func (r *flotaRepository) Eliminar(placa string) error {
	res, err := r.db.Exec(`DELETE FROM vehiculos WHERE placa = $1`, placa)
	if err != nil {
		return traducir(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return traducir(sql.ErrNoRows)
	}
	return nil
}
