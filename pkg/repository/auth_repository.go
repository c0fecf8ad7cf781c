package repository

import (
	"database/sql"
	"strings"
	"time"

	"flota/pkg/models"
)

type AuthRepository interface {
	CreateUser(username, hashedPassword, nombre, rol, area string) (models.User, error)
	GetUserByUsername(username string) (models.User, string, error)
	GetUserByID(id int) (models.User, error)
	CreateSession(userID int, refreshToken, userAgent, ip string, expiresAt time.Time) error
	GetSessionByToken(token string) (models.Session, models.User, error)
	UpdateSession(sessionID int, newRefresh string, expiresAt time.Time) error
	DeleteSessionByToken(token string) error
	DeleteAllSessionsByUserID(userID int) error
}

type authRepository struct {
	db *sql.DB
}

func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const columnasUser = `id, uuid, username, nombre, rol, COALESCE(area,''), created_at`

func (r *authRepository) CreateUser(username, hashedPassword, nombre, rol, area string) (models.User, error) {
	var user models.User
	err := r.db.QueryRow(
		`INSERT INTO users (username, password, nombre, rol, area)
		 VALUES ($1, $2, $3, $4, NULLIF($5,''))
		 RETURNING `+columnasUser,
		strings.ToLower(username), hashedPassword, nombre, rol, area,
	).Scan(&user.ID, &user.UUID, &user.Username, &user.Nombre, &user.Rol, &user.Area, &user.CreatedAt)
	return user, traducir(err)
}

func (r *authRepository) GetUserByUsername(username string) (models.User, string, error) {
	var user models.User
	var hashedPw string
	err := r.db.QueryRow(
		`SELECT id, uuid, username, nombre, rol, COALESCE(area,''), password, created_at
		 FROM users WHERE username = $1`,
		strings.ToLower(username),
	).Scan(&user.ID, &user.UUID, &user.Username, &user.Nombre, &user.Rol, &user.Area, &hashedPw, &user.CreatedAt)
	return user, hashedPw, traducir(err)
}

func (r *authRepository) GetUserByID(id int) (models.User, error) {
	var user models.User
	err := r.db.QueryRow(
		`SELECT `+columnasUser+` FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.UUID, &user.Username, &user.Nombre, &user.Rol, &user.Area, &user.CreatedAt)
	return user, traducir(err)
}

func (r *authRepository) CreateSession(userID int, refreshToken, userAgent, ip string, expiresAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (user_id, refresh_token, user_agent, ip, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, refreshToken, userAgent, ip, expiresAt,
	)
	return traducir(err)
}

func (r *authRepository) GetSessionByToken(token string) (models.Session, models.User, error) {
	var session models.Session
	var user models.User
	err := r.db.QueryRow(
		`SELECT s.id, s.user_id, s.expires_at, u.uuid, u.username, u.nombre, u.rol, COALESCE(u.area,''), u.created_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.refresh_token = $1 AND s.expires_at > NOW()`, token,
	).Scan(&session.ID, &session.UserID, &session.ExpiresAt,
		&user.UUID, &user.Username, &user.Nombre, &user.Rol, &user.Area, &user.CreatedAt)
	user.ID = session.UserID
	return session, user, traducir(err)
}

func (r *authRepository) UpdateSession(sessionID int, newRefresh string, expiresAt time.Time) error {
	_, err := r.db.Exec(
		`UPDATE sessions SET refresh_token = $1, expires_at = $2 WHERE id = $3`,
		newRefresh, expiresAt, sessionID,
	)
	return traducir(err)
}

func (r *authRepository) DeleteSessionByToken(token string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE refresh_token = $1`, token)
	return traducir(err)
}

func (r *authRepository) DeleteAllSessionsByUserID(userID int) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID)
	return traducir(err)
}
