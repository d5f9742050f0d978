package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/emojimake/videokit/pkg/response"
)

// UserClaims are the claims the dev server mints, matching the production
// service's token shape.
type UserClaims struct {
	ID    int64  `json:"id"`
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

// GenerateToken mints an HS256 token for the given account.
func GenerateToken(secret string, id int64, phone string, ttl time.Duration) (string, error) {
	claims := &UserClaims{
		ID:    id,
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "emoji-maker-devserver",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Protected validates the bearer token. The rejection messages are the
// production service's exact wording; the client's phrase table keys on
// them.
func Protected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing or malformed JWT")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Missing or malformed JWT")
		}

		claims := &UserClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return response.Unauthorized(c, "Invalid or expired JWT")
		}

		c.Locals("userID", claims.ID)
		c.Locals("phone", claims.Phone)
		return c.Next()
	}
}
