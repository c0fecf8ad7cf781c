package services

import "log"

// compensacion registra los pasos ya confirmados de una operación
// multi-escritura sin transacción real. Si un paso posterior falla,
// Ejecutar deshace lo confirmado en orden inverso. Cada deshacer se
// intenta una sola vez; si a su vez falla, la inconsistencia se
// registra pero no se auto-repara.
type compensacion struct {
	pasos []paso
}

type paso struct {
	nombre   string
	deshacer func() error
}

func (c *compensacion) registrar(nombre string, deshacer func() error) {
	c.pasos = append(c.pasos, paso{nombre: nombre, deshacer: deshacer})
}

func (c *compensacion) ejecutar() {
	for i := len(c.pasos) - 1; i >= 0; i-- {
		p := c.pasos[i]
		if err := p.deshacer(); err != nil {
			log.Printf("[RESERVAS] compensación %q falló, estado posiblemente inconsistente: %v", p.nombre, err)
		}
	}
	c.pasos = nil
}
