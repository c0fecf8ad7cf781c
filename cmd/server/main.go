package main

import (
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	"flota/pkg/broker"
	"flota/pkg/cache"
	"flota/pkg/database"
	"flota/pkg/handlers"
	"flota/pkg/hub"
	"flota/pkg/middleware"
	"flota/pkg/repository"
	"flota/pkg/server"
	"flota/pkg/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

const canalAvisos = "flota:avisos"

func main() {
	godotenv.Load()

	db := database.Connect()
	defer db.Close()

	// PG serverless: pool chico, conexiones de vida corta
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	database.Migrate(db)
	go limpiarSesionesExpiradas(db)

	log.Println("[FLOTA] Conectando a Redis...")
	redis := cache.New()
	defer redis.Close()
	bk := broker.New()
	defer bk.Close()
	log.Println("[FLOTA] Redis conectado")

	wsHub := hub.New()

	// Avisos publicados por otras instancias llegan por el broker y se
	// reparten a los sockets locales.
	bk.On("", wsHub.Difundir)
	bk.Subscribe(canalAvisos)

	flotaRepo := repository.NewFlotaRepository(db)
	solicitudesRepo := repository.NewSolicitudesRepository(db)
	reservasRepo := repository.NewReservasRepository(db)
	authRepo := repository.NewAuthRepository(db)

	avisos := services.NewNotificador(wsHub, bk, canalAvisos)
	disponibilidad := services.NewDisponibilidadService(flotaRepo, reservasRepo, redis)
	reservas := services.NewReservasService(solicitudesRepo, reservasRepo, flotaRepo, disponibilidad, redis, avisos)
	vencimientos := services.NewVencimientosService(solicitudesRepo, redis, avisos)
	flotaSvc := services.NewFlotaService(flotaRepo, redis)
	authSvc := services.NewAuthService(authRepo)

	auth := handlers.NewAuth(authSvc)
	flota := handlers.NewFlota(flotaSvc, disponibilidad, wsHub)
	solicitudes := handlers.NewSolicitudes(reservas, vencimientos, wsHub)
	garita := handlers.NewGarita(reservas, wsHub)

	go barrerVencimientos(vencimientos)

	app := server.NewApp("flota")

	porIP := func(c *fiber.Ctx) string { return c.IP() }

	authGroup := app.Group("/auth")
	authGroup.Post("/register", limiter.New(limiter.Config{
		Max:          5,
		Expiration:   1 * time.Minute,
		KeyGenerator: porIP,
	}), auth.Register)
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:          10,
		Expiration:   1 * time.Minute,
		KeyGenerator: porIP,
	}), auth.Login)
	authGroup.Post("/refresh", auth.Refresh)

	authPriv := authGroup.Group("", middleware.AuthMiddleware)
	authPriv.Get("/me", auth.Me)
	authPriv.Post("/logout", auth.Logout)
	authPriv.Post("/logout-all", auth.LogoutAll)

	// ── Inventario de camionetas (lectura autenticada, escritura admin) ──
	flotaGroup := app.Group("/flota", middleware.AuthMiddleware)
	flotaGroup.Get("/", flota.Listar)
	flotaGroup.Get("/:placa", flota.Buscar)
	flotaAdmin := flotaGroup.Group("", middleware.RequireRol("admin"))
	flotaAdmin.Post("/", flota.Crear)
	flotaAdmin.Put("/:placa", flota.Actualizar)
	flotaAdmin.Patch("/:placa/estado", flota.CambiarEstado)
	flotaAdmin.Delete("/:placa", flota.Eliminar)

	app.Get("/disponibilidad", middleware.AuthMiddleware, flota.Disponibilidad)

	// ── Solicitudes y reservas ──
	solGroup := app.Group("/solicitudes", middleware.AuthMiddleware)
	solGroup.Get("/", solicitudes.Listar)
	solGroup.Get("/:id", solicitudes.Buscar)
	solGroup.Post("/", solicitudes.Crear)
	solGroup.Post("/:id/cancelar", solicitudes.Cancelar)
	solAdmin := solGroup.Group("", middleware.RequireRol("admin"))
	solAdmin.Post("/:id/asignar", solicitudes.Asignar)
	solAdmin.Post("/:id/rechazar", solicitudes.Rechazar)

	app.Post("/mantenimiento/vencidas", middleware.AuthMiddleware,
		middleware.RequireRol("admin"), solicitudes.BarrerVencidas)

	// ── Garita ──
	garitaGroup := app.Group("/garita", middleware.AuthMiddleware,
		middleware.RequireRol("garita", "admin"), limiter.New(limiter.Config{
			Max:          30,
			Expiration:   1 * time.Minute,
			KeyGenerator: porIP,
		}))
	garitaGroup.Post("/solicitudes/:id/entrega", garita.Entregar)
	garitaGroup.Post("/solicitudes/:id/devolucion", garita.Devolver)

	app.Get("/hub/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"clients":       wsHub.ClientCount(),
			"authenticated": wsHub.AuthenticatedCount(),
		})
	})

	app.Use("/ws", parseWSToken)
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(int)
		userUUID, _ := c.Locals("user_uuid").(string)
		username, _ := c.Locals("username").(string)
		rol, _ := c.Locals("rol").(string)
		area, _ := c.Locals("area").(string)
		wsHub.HandleClientConn(c, userID, userUUID, username, rol, area)
	}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8083"
	}

	addr := "0.0.0.0:" + port
	log.Printf("[FLOTA] WebSocket: wss://<dominio>/ws")
	log.Printf("[FLOTA] Servidor iniciando en %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("[FLOTA] No se pudo iniciar: %v", err)
	}
}

func parseWSToken(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr = authHeader[7:]
		}
	}

	userID := 0
	userUUID := ""
	username := ""
	rol := ""
	area := ""

	if tokenStr != "" {
		token, err := jwt.ParseWithClaims(tokenStr, &jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
			return []byte(middleware.JwtSecret()), nil
		})

		if err == nil && token.Valid {
			claims := token.Claims.(*jwt.MapClaims)
			if id, ok := (*claims)["user_id"].(float64); ok {
				userID = int(id)
			}
			if uid, ok := (*claims)["uuid"].(string); ok {
				userUUID = uid
			}
			if uname, ok := (*claims)["username"].(string); ok {
				username = uname
			}
			if r, ok := (*claims)["rol"].(string); ok {
				rol = r
			}
			if a, ok := (*claims)["area"].(string); ok {
				area = a
			}
		}
	}

	c.Locals("user_id", userID)
	c.Locals("user_uuid", userUUID)
	c.Locals("username", username)
	c.Locals("rol", rol)
	c.Locals("area", area)
	return c.Next()
}

func limpiarSesionesExpiradas(db *sql.DB) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		db.Exec(`DELETE FROM sessions WHERE expires_at < NOW()`)
	}
}

// barrerVencimientos repite el barrido perezoso de vencidas en segundo
// plano; el mismo barrido también corre bajo demanda vía HTTP.
func barrerVencimientos(v services.VencimientosService) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if ids, err := v.Barrer(); err != nil {
			log.Printf("[BARRIDO] error: %v", err)
		} else if len(ids) > 0 {
			log.Printf("[BARRIDO] %d solicitud(es) vencidas", len(ids))
		}
	}
}
