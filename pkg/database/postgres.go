package database

import (
	"database/sql"
	"log"
	"os"

	"flota/pkg/database/migrations"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func Connect() *sql.DB {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Println("Aviso: DATABASE_URL no definida.")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Error abriendo conexión:", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Error en ping a la base:", err)
	}

	log.Println("Conexión con PostgreSQL establecida.")
	return db
}

// Migrate aplica las migraciones goose embebidas. Se corre en el boot;
// es idempotente.
func Migrate(db *sql.DB) {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("[DB] goose dialect: %v", err)
	}
	if err := goose.Up(db, "."); err != nil {
		log.Fatalf("[DB] goose up: %v", err)
	}
	log.Println("[DB] Esquema al día")
}
