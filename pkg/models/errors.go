package models

import "errors"

// Sentinelas de error del dominio. Los repositorios y servicios envuelven
// el error original del store con %w sobre uno de estos, de modo que los
// handlers resuelven el status HTTP con errors.Is y el mensaje original
// queda disponible para mostrarlo al usuario.
var (
	// ErrValidacion: entrada inválida detectada antes de tocar el store.
	ErrValidacion = errors.New("solicitud inválida")

	// ErrConflicto: la placa ya no está libre al momento de confirmar,
	// o el store rechazó el insert por violación de unicidad/exclusión.
	ErrConflicto = errors.New("conflicto de reserva")

	// ErrNoEncontrado: id inexistente o registro fuera del estado esperado.
	ErrNoEncontrado = errors.New("registro no encontrado")

	// ErrAlmacen: falla de I/O contra el store (red, auth, rate limit).
	// No se reintenta automáticamente; el caller decide.
	ErrAlmacen = errors.New("error del almacén de datos")
)
