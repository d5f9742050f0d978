package handler

import (
	"errors"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/emojimake/videokit/internal/middleware"
	"github.com/emojimake/videokit/internal/store"
	"github.com/emojimake/videokit/pkg/response"
)

var phoneRE = regexp.MustCompile(`^1[3-9]\d{9}$`)

// UserHandler serves the account endpoints.
type UserHandler struct {
	users     *store.UserStore
	jwtSecret string
	tokenTTL  time.Duration
}

// NewUserHandler creates a user handler.
func NewUserHandler(users *store.UserStore, jwtSecret string, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register handles POST /api/v1/users/register.
func (h *UserHandler) Register(c *fiber.Ctx) error {
	phone := c.FormValue("phone")
	password := c.FormValue("password")

	if !phoneRE.MatchString(phone) {
		return response.BadRequest(c, "Invalid phone number format")
	}
	if len(password) < 8 {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	if _, err := h.users.Register(c.Context(), phone, password); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return response.ServerError(c, err.Error())
		}
		return response.ServerError(c, "Failed to register user")
	}

	return response.OK(c, "Registration successful", nil)
}

// Login handles POST /api/v1/users/login.
func (h *UserHandler) Login(c *fiber.Ctx) error {
	phone := c.FormValue("phone")
	password := c.FormValue("password")

	if phone == "" || password == "" {
		return response.BadRequest(c, "Phone and password are required")
	}

	user, err := h.users.Authenticate(c.Context(), phone, password)
	if err != nil {
		if errors.Is(err, store.ErrBadLogin) {
			return response.Unauthorized(c, err.Error())
		}
		return response.ServerError(c, "Failed to log in")
	}

	token, err := middleware.GenerateToken(h.jwtSecret, user.ID, user.Phone, h.tokenTTL)
	if err != nil {
		return response.ServerError(c, "Failed to issue token")
	}

	return response.OK(c, "Login successful", fiber.Map{"token": token})
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	newPassword := c.FormValue("newPassword")
	if newPassword == "" {
		return response.BadRequest(c, "New password is required")
	}

	phone, ok := c.Locals("phone").(string)
	if !ok || phone == "" {
		return response.Unauthorized(c, "Invalid JWT claims")
	}

	if err := h.users.ChangePassword(c.Context(), phone, newPassword); err != nil {
		return response.ServerError(c, "Failed to change password")
	}

	return response.OK(c, "Password changed successfully", nil)
}
