package models

// Aviso es la notificación fire-and-forget que se dispara tras las
// transiciones clave (reservar, asignar, cancelar, vencimientos).
// RolFiltro/AreaFiltro acotan a qué sockets conectados se entrega;
// vacíos significan "todos". Su envío nunca falla hacia el caller.
type Aviso struct {
	Titulo     string `json:"titulo"`
	Cuerpo     string `json:"cuerpo"`
	Severidad  string `json:"severidad"`
	RolFiltro  string `json:"rol_filtro,omitempty"`
	AreaFiltro string `json:"area_filtro,omitempty"`
}

// Severidades de aviso.
const (
	AvisoInfo    = "info"
	AvisoAlerta  = "alerta"
	AvisoCritico = "critico"
)
