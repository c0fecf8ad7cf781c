package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"flota/pkg/middleware"
	"flota/pkg/models"
	"flota/pkg/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(req models.RegisterRequest, userAgent, ip string) (models.AuthResponse, error)
	Login(req models.LoginRequest, userAgent, ip string) (models.AuthResponse, error)
	Refresh(refreshToken string) (models.AuthResponse, error)
	Me(userID int) (models.User, error)
	Logout(refreshToken string) error
	LogoutAll(userID int) error
}

type authService struct {
	repo      repository.AuthRepository
	jwtSecret string
}

func NewAuthService(repo repository.AuthRepository) AuthService {
	return &authService{repo: repo, jwtSecret: middleware.JwtSecret()}
}

func (s *authService) Register(req models.RegisterRequest, userAgent, ip string) (models.AuthResponse, error) {
	if err := validarUsername(req.Username); err != nil {
		return models.AuthResponse{}, err
	}
	if err := validarPassword(req.Password); err != nil {
		return models.AuthResponse{}, err
	}
	rol := req.Rol
	if rol == "" {
		rol = models.RolSolicitante
	}
	switch rol {
	case models.RolAdmin, models.RolGarita, models.RolSolicitante:
	default:
		return models.AuthResponse{}, fmt.Errorf("%w: rol desconocido %q", models.ErrValidacion, req.Rol)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("error interno")
	}

	user, err := s.repo.CreateUser(req.Username, string(hashed), req.Nombre, rol, req.Area)
	if err != nil {
		if errors.Is(err, models.ErrConflicto) {
			return models.AuthResponse{}, fmt.Errorf("%w: el username ya existe", models.ErrConflicto)
		}
		return models.AuthResponse{}, fmt.Errorf("error al crear la cuenta")
	}

	return s.crearSesion(user, userAgent, ip)
}

func (s *authService) Login(req models.LoginRequest, userAgent, ip string) (models.AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return models.AuthResponse{}, fmt.Errorf("%w: username y contraseña obligatorios", models.ErrValidacion)
	}

	user, hashedPw, err := s.repo.GetUserByUsername(req.Username)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("username o contraseña incorrectos")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPw), []byte(req.Password)); err != nil {
		return models.AuthResponse{}, fmt.Errorf("username o contraseña incorrectos")
	}

	return s.crearSesion(user, userAgent, ip)
}

func (s *authService) Refresh(refreshToken string) (models.AuthResponse, error) {
	if refreshToken == "" {
		return models.AuthResponse{}, fmt.Errorf("%w: refresh token no informado", models.ErrValidacion)
	}

	session, user, err := s.repo.GetSessionByToken(refreshToken)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("sesión inválida o expirada")
	}

	newRefresh := generarRefreshToken()
	newExpiry := time.Now().Add(30 * 24 * time.Hour)
	if err := s.repo.UpdateSession(session.ID, newRefresh, newExpiry); err != nil {
		return models.AuthResponse{}, fmt.Errorf("error interno")
	}

	return models.AuthResponse{
		AccessToken:  s.generarAccessToken(user),
		RefreshToken: newRefresh,
		User:         user,
		ExpiresIn:    3600,
	}, nil
}

func (s *authService) Me(userID int) (models.User, error) {
	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: usuario no encontrado", models.ErrNoEncontrado)
	}
	return user, nil
}

func (s *authService) Logout(refreshToken string) error {
	if refreshToken != "" {
		return s.repo.DeleteSessionByToken(refreshToken)
	}
	return nil
}

func (s *authService) LogoutAll(userID int) error {
	return s.repo.DeleteAllSessionsByUserID(userID)
}

func (s *authService) crearSesion(user models.User, userAgent, ip string) (models.AuthResponse, error) {
	refreshToken := generarRefreshToken()
	expiresAt := time.Now().Add(30 * 24 * time.Hour)

	if err := s.repo.CreateSession(user.ID, refreshToken, userAgent, ip, expiresAt); err != nil {
		return models.AuthResponse{}, fmt.Errorf("error al crear la sesión")
	}

	return models.AuthResponse{
		AccessToken:  s.generarAccessToken(user),
		RefreshToken: refreshToken,
		User:         user,
		ExpiresIn:    3600,
	}, nil
}

func (s *authService) generarAccessToken(user models.User) string {
	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"uuid":       user.UUID,
		"username":   user.Username,
		"rol":        user.Rol,
		"area":       user.Area,
		"exp":        time.Now().Add(1 * time.Hour).Unix(),
		"iat":        time.Now().Unix(),
		"token_type": "access",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, _ := token.SignedString([]byte(s.jwtSecret))
	return tokenStr
}

func generarRefreshToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func validarUsername(username string) error {
	u := strings.TrimSpace(username)
	if len(u) < 3 || len(u) > 32 {
		return fmt.Errorf("%w: username debe tener entre 3 y 32 caracteres", models.ErrValidacion)
	}
	for _, r := range u {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: username con caracteres inválidos", models.ErrValidacion)
		}
	}
	return nil
}

func validarPassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: la contraseña debe tener al menos 8 caracteres", models.ErrValidacion)
	}
	return nil
}
