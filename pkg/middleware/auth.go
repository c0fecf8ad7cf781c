package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func JwtSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-key-change-in-production"
	}
	return secret
}

func AuthMiddleware(c *fiber.Ctx) error {
	auth := c.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return c.Status(401).JSON(fiber.Map{"error": "Token no informado"})
	}

	tokenStr := auth[7:]
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(JwtSecret()), nil
	})
	if err != nil || !token.Valid {
		return c.Status(401).JSON(fiber.Map{"error": "Token inválido"})
	}

	claims := token.Claims.(*jwt.MapClaims)
	userID := 0
	if id, ok := (*claims)["user_id"].(float64); ok {
		userID = int(id)
	}
	userUUID, _ := (*claims)["uuid"].(string)
	username, _ := (*claims)["username"].(string)
	rol, _ := (*claims)["rol"].(string)
	area, _ := (*claims)["area"].(string)

	c.Locals("user_id", userID)
	c.Locals("user_uuid", userUUID)
	c.Locals("username", username)
	c.Locals("rol", rol)
	c.Locals("area", area)

	return c.Next()
}

// RequireRol corta la cadena si el rol autenticado no está en la lista.
// Se apila después de AuthMiddleware.
func RequireRol(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rol, _ := c.Locals("rol").(string)
		for _, r := range roles {
			if rol == r {
				return c.Next()
			}
		}
		return c.Status(403).JSON(fiber.Map{"error": "Acceso denegado para el rol " + rol})
	}
}
