package service

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/emojimake/videokit/internal/apierr"
	"github.com/emojimake/videokit/internal/auth"
	"github.com/emojimake/videokit/internal/client"
	"github.com/emojimake/videokit/internal/model"
)

const (
	registerEndpoint       = "/api/v1/users/register"
	loginEndpoint          = "/api/v1/users/login"
	changePasswordEndpoint = "/api/v1/users/change-password"
)

var cnPhoneRE = regexp.MustCompile(`^1[3-9]\d{9}$`)

// RegisterPhoneValidation adds the cn_phone tag used by the user inputs.
// The rule mirrors the server's own check so a malformed phone number
// never costs a round trip.
func RegisterPhoneValidation(validate *validator.Validate) error {
	return validate.RegisterValidation("cn_phone", func(fl validator.FieldLevel) bool {
		return cnPhoneRE.MatchString(fl.Field().String())
	})
}

type registerInput struct {
	Phone    string `validate:"required,cn_phone"`
	Password string `validate:"required,min=8"`
}

type loginInput struct {
	Phone    string `validate:"required"`
	Password string `validate:"required"`
}

type changePasswordInput struct {
	NewPassword string `validate:"required,min=8"`
}

// UserService drives the account endpoints and keeps the auth store in
// sync with login state.
type UserService struct {
	api      Sender
	sessions *auth.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewUserService creates a user service.
func NewUserService(api Sender, sessions *auth.Store, validate *validator.Validate, logger zerolog.Logger) *UserService {
	return &UserService{
		api:      api,
		sessions: sessions,
		validate: validate,
		logger:   logger,
	}
}

// Register creates an account. Anonymous endpoint.
func (s *UserService) Register(ctx context.Context, phone, password string) error {
	if err := s.validate.Struct(registerInput{Phone: phone, Password: password}); err != nil {
		return validationError(err)
	}

	fields := client.Fields{"phone": phone, "password": password}
	if _, apiErr := s.api.Send(ctx, http.MethodPost, registerEndpoint, fields, false, client.EncodingMultipart); apiErr != nil {
		return apiErr
	}

	s.logger.Info().Str("phone", phone).Msg("account registered")
	return nil
}

// Login authenticates and hands the issued token to the auth store, which
// persists it together with the phone number.
func (s *UserService) Login(ctx context.Context, phone, password string) error {
	if err := s.validate.Struct(loginInput{Phone: phone, Password: password}); err != nil {
		return validationError(err)
	}

	fields := client.Fields{"phone": phone, "password": password}
	env, apiErr := s.api.Send(ctx, http.MethodPost, loginEndpoint, fields, false, client.EncodingMultipart)
	if apiErr != nil {
		return apiErr
	}

	var data model.LoginData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return apierr.ParseFailure(0, "login response carries no token")
	}

	if err := s.sessions.Login(data.Token, phone); err != nil {
		return err
	}
	s.logger.Info().Str("phone", phone).Msg("logged in")
	return nil
}

// ChangePassword updates the password of the authenticated account.
func (s *UserService) ChangePassword(ctx context.Context, newPassword string) error {
	if err := s.validate.Struct(changePasswordInput{NewPassword: newPassword}); err != nil {
		return validationError(err)
	}

	fields := client.Fields{"newPassword": newPassword}
	if _, apiErr := s.api.Send(ctx, http.MethodPost, changePasswordEndpoint, fields, true, client.EncodingMultipart); apiErr != nil {
		return apiErr
	}

	s.logger.Info().Msg("password changed")
	return nil
}

// Logout clears the session and its persisted token.
func (s *UserService) Logout() error {
	return s.sessions.Logout()
}
