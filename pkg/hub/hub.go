package hub

import (
	"log"
	"sync"
	"time"

	"flota/pkg/envelope"
	"flota/pkg/models"

	"github.com/gofiber/contrib/websocket"
)

type clientConn struct {
	conn     *websocket.Conn
	userID   int
	uuid     string
	username string
	rol      string
	area     string
	mu       sync.Mutex
}

func (cc *clientConn) send(data []byte) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if err := cc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[HUB] error de envío user=%d: %v", cc.userID, err)
	}
}

// Hub mantiene los sockets del dashboard. Es un canal de salida: empuja
// eventos de flota/solicitudes y avisos filtrados por rol/área; lo único
// que acepta de entrada es el ping de keepalive.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*clientConn
	byUser  map[int][]*clientConn
}

func New() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*clientConn),
		byUser:  make(map[int][]*clientConn),
	}
}

func (h *Hub) HandleClientConn(c *websocket.Conn, userID int, uuid, username, rol, area string) {
	cc := &clientConn{conn: c, userID: userID, uuid: uuid, username: username, rol: rol, area: area}

	h.mu.Lock()
	h.clients[c] = cc
	if userID > 0 {
		h.byUser[userID] = append(h.byUser[userID], cc)
	}
	h.mu.Unlock()

	log.Printf("[HUB] Cliente conectado: user_id=%d rol=%s total=%d", userID, rol, h.ClientCount())

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		if userID > 0 {
			conns := h.byUser[userID]
			for i, conn := range conns {
				if conn == cc {
					h.byUser[userID] = append(conns[:i], conns[i+1:]...)
					break
				}
			}
			if len(h.byUser[userID]) == 0 {
				delete(h.byUser, userID)
			}
		}
		h.mu.Unlock()
		c.Close()
		log.Printf("[HUB] Cliente desconectado: user_id=%d total=%d", userID, h.ClientCount())
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		env, err := envelope.Unmarshal(raw)
		if err != nil {
			errResp := envelope.Envelope{
				Action:    "error",
				Error:     &envelope.ErrorPayload{Code: 400, Message: "JSON inválido"},
				Timestamp: time.Now().UnixMilli(),
			}
			data, _ := errResp.Marshal()
			cc.send(data)
			continue
		}

		if env.Action == "ping" {
			pong := envelope.New("pong", "system")
			data, _ := pong.Marshal()
			cc.send(data)
		}
		// El hub no acepta comandos: las mutaciones van por REST.
	}
}

// Broadcast empuja un evento a todos los sockets conectados.
func (h *Hub) Broadcast(action, service string, data interface{}) {
	env, err := envelope.NewEvent(action, service, data)
	if err != nil {
		return
	}
	raw, err := env.Marshal()
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cc := range h.clients {
		cc.send(raw)
	}
}

// Difundir reenvía un envelope ya armado (p. ej. recibido del broker).
func (h *Hub) Difundir(env envelope.Envelope) {
	raw, err := env.Marshal()
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cc := range h.clients {
		cc.send(raw)
	}
}

// Notificar entrega un aviso solo a los sockets que pasen los filtros
// de rol y área (vacío = sin filtro).
func (h *Hub) Notificar(aviso models.Aviso) {
	env, err := envelope.NewEvent("notificaciones.nueva", "flota", aviso)
	if err != nil {
		return
	}
	raw, err := env.Marshal()
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cc := range h.clients {
		if aviso.RolFiltro != "" && cc.rol != aviso.RolFiltro {
			continue
		}
		if aviso.AreaFiltro != "" && cc.area != aviso.AreaFiltro {
			continue
		}
		cc.send(raw)
	}
}

// NotificarUsuario entrega un aviso a todas las conexiones de un user.
func (h *Hub) NotificarUsuario(userID int, aviso models.Aviso) {
	env, err := envelope.NewEvent("notificaciones.nueva", "flota", aviso)
	if err != nil {
		return
	}
	raw, err := env.Marshal()
	if err != nil {
		return
	}
	h.mu.RLock()
	conns := h.byUser[userID]
	h.mu.RUnlock()
	for _, cc := range conns {
		cc.send(raw)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) AuthenticatedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser)
}
