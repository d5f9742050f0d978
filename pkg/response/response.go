package response

import "github.com/gofiber/fiber/v2"

// Body is the wire envelope every endpoint answers with:
// {code, message?, error?, data?}. The user endpoints signal success with
// code 0, the video endpoints with code 200; clients must tolerate both.
type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK answers with the user-endpoint success sentinel (code 0).
func OK(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Body{Code: 0, Message: message, Data: data})
}

// OKLegacy answers with the video-endpoint success sentinel (code 200).
func OKLegacy(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Body{Code: 200, Message: message, Data: data})
}

// BadRequest answers HTTP 400 with code 1 and a message.
func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Body{Code: 1, Message: message})
}

// FieldError answers HTTP 400 with a bare error field, the shape the
// video create endpoints use for invalid input.
func FieldError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Body{Error: message})
}

// Unauthorized answers HTTP 401 with code 1 and a message.
func Unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(Body{Code: 1, Message: message})
}

// ServerError answers HTTP 500 with code 1 and a message.
func ServerError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(Body{Code: 1, Message: message})
}
