package services

import (
	"log"

	"flota/pkg/broker"
	"flota/pkg/envelope"
	"flota/pkg/hub"
	"flota/pkg/models"
)

// Notificador es el gancho fire-and-forget que se dispara tras las
// transiciones clave. Las fallas se registran y se tragan: nunca
// alteran el resultado de la operación que las originó.
type Notificador interface {
	Notificar(aviso models.Aviso)
}

// hubNotificador entrega el aviso a los sockets locales y lo publica en
// el broker para que las demás instancias hagan lo mismo.
type hubNotificador struct {
	hub    *hub.Hub
	broker *broker.Broker
	canal  string
}

func NewNotificador(h *hub.Hub, b *broker.Broker, canal string) Notificador {
	return &hubNotificador{hub: h, broker: b, canal: canal}
}

func (n *hubNotificador) Notificar(aviso models.Aviso) {
	if n.hub != nil {
		n.hub.Notificar(aviso)
	}
	if n.broker != nil {
		env, err := envelope.NewEvent("notificaciones.nueva", "flota", aviso)
		if err != nil {
			log.Printf("[AVISOS] error armando aviso: %v", err)
			return
		}
		if err := n.broker.Publish(n.canal, env); err != nil {
			log.Printf("[AVISOS] error publicando aviso: %v", err)
		}
	}
}

// NotificadorNulo descarta todo; útil en tests.
type NotificadorNulo struct{}

func (NotificadorNulo) Notificar(models.Aviso) {}
