package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"flota/pkg/models"

	"github.com/lib/pq"
)

// Códigos de error de Postgres que clasifican como conflicto de
// reserva: violación de unicidad y violación de constraint de
// exclusión (el backstop de traslape placa/ventana del esquema).
const (
	codigoUnicidad  = "23505"
	codigoExclusion = "23P01"
)

// traducir convierte errores crudos del driver a las sentinelas del
// dominio, conservando el mensaje original en la cadena %w. Todo error
// que no sea de filas/constraints se trata como falla de I/O del
// almacén (no reintenable aquí; el caller decide).
func traducir(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", models.ErrNoEncontrado, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codigoUnicidad, codigoExclusion:
			return fmt.Errorf("%w: %v", models.ErrConflicto, err)
		}
	}
	return fmt.Errorf("%w: %v", models.ErrAlmacen, err)
}
