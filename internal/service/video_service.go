package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/emojimake/videokit/internal/apierr"
	"github.com/emojimake/videokit/internal/client"
	"github.com/emojimake/videokit/internal/model"
)

const (
	createEndpoint       = "/api/v1/video/create"
	createPromptEndpoint = "/api/v1/video/create_with_prompt"
	queryEndpoint        = "/api/v1/video/query/"
)

// Sender is the request surface the services need from the client.
type Sender interface {
	Send(ctx context.Context, method, endpoint string, fields client.Fields, requiresAuth bool, enc client.Encoding) (*model.Envelope, *apierr.Error)
}

// VideoService submits generation jobs and queries their status.
type VideoService struct {
	api      Sender
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewVideoService creates a video service.
func NewVideoService(api Sender, validate *validator.Validate, logger zerolog.Logger) *VideoService {
	return &VideoService{
		api:      api,
		validate: validate,
		logger:   logger,
	}
}

// Submit validates the request for its mode, assembles the form fields and
// sends it. Validation failures never reach the network. On success the
// server-issued job id is returned.
func (s *VideoService) Submit(ctx context.Context, req model.GenerationRequest) (string, error) {
	endpoint, fields, err := s.buildSubmission(req)
	if err != nil {
		return "", err
	}

	env, apiErr := s.api.Send(ctx, http.MethodPost, endpoint, fields, true, client.EncodingMultipart)
	if apiErr != nil {
		return "", apiErr
	}

	var data model.CreateTaskData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.JobID == "" {
		return "", apierr.ParseFailure(0, "submission response carries no job id")
	}

	s.logger.Info().
		Str("job_id", data.JobID).
		Str("mode", string(req.GenerationMode())).
		Msg("job submitted")
	return data.JobID, nil
}

// QueryJob fetches the current status of a job.
func (s *VideoService) QueryJob(ctx context.Context, jobID string) (*model.Job, error) {
	env, apiErr := s.api.Send(ctx, http.MethodGet, queryEndpoint+url.PathEscape(jobID), nil, true, client.EncodingNone)
	if apiErr != nil {
		return nil, apiErr
	}

	var job model.Job
	if err := json.Unmarshal(env.Data, &job); err != nil {
		return nil, apierr.ParseFailure(0, "status response carries no job data")
	}
	if job.ID == "" {
		job.ID = jobID
	}
	return &job, nil
}

// buildSubmission resolves the endpoint and form fields for one variant.
// Optional fields are omitted entirely when blank; the server treats
// presence as intent.
func (s *VideoService) buildSubmission(req model.GenerationRequest) (string, client.Fields, error) {
	switch r := req.(type) {
	case model.TextToVideo:
		if r.Size == "" {
			r.Size = model.DefaultVideoSize
		}
		if err := s.validate.Struct(r); err != nil {
			return "", nil, validationError(err)
		}
		fields := client.Fields{
			"type":   string(model.ModeTextToVideo),
			"prompt": r.Prompt,
			"size":   r.Size,
		}
		if r.NegativePrompt != "" {
			fields["negative_prompt"] = r.NegativePrompt
		}
		return createEndpoint, fields, nil

	case model.ImageToVideo:
		if r.Resolution == "" {
			r.Resolution = model.DefaultResolution
		}
		if err := s.validate.Struct(r); err != nil {
			return "", nil, validationError(err)
		}
		fields := client.Fields{
			"type":       string(model.ModeImageToVideo),
			"prompt":     r.Prompt,
			"resolution": r.Resolution,
			"img_base64": r.ImageData,
		}
		if r.NegativePrompt != "" {
			fields["negative_prompt"] = r.NegativePrompt
		}
		return createEndpoint, fields, nil

	case model.PromptDrivenVideo:
		if r.Size == "" {
			r.Size = model.DefaultVideoSize
		}
		if err := s.validate.Struct(r); err != nil {
			return "", nil, validationError(err)
		}
		fields := client.Fields{
			"role":   r.Role,
			"action": r.Action,
			"size":   r.Size,
		}
		if r.Source != "" {
			fields["source"] = r.Source
		}
		return createPromptEndpoint, fields, nil

	default:
		return "", nil, apierr.Validation(fmt.Sprintf("unsupported generation request %T", req))
	}
}

// validationError flattens the first validator failure into the local
// Validation kind, distinguishable from anything server-sent.
func validationError(err error) *apierr.Error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apierr.Validation(err.Error())
	}

	fe := fieldErrs[0]
	field := camelToWords(fe.Field())
	switch fe.Tag() {
	case "required":
		return apierr.Validation(field + " is required")
	case "min":
		return apierr.Validation(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	case "cn_phone":
		return apierr.Validation("phone number format is invalid")
	default:
		return apierr.Validation(fmt.Sprintf("%s is invalid", field))
	}
}

func camelToWords(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
