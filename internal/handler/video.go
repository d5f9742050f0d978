package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emojimake/videokit/internal/model"
	"github.com/emojimake/videokit/internal/store"
	"github.com/emojimake/videokit/pkg/response"
)

// failPrefix in a prompt (or action) makes the scripted job end FAILED
// with the remainder as the error message. Dev-only trigger so client
// failure paths can be exercised without a real generation backend.
const failPrefix = "fail:"

// VideoHandler serves the generation endpoints.
type VideoHandler struct {
	jobs   *store.JobStore
	logger zerolog.Logger
}

// NewVideoHandler creates a video handler.
func NewVideoHandler(jobs *store.JobStore, logger zerolog.Logger) *VideoHandler {
	return &VideoHandler{jobs: jobs, logger: logger}
}

// Create handles POST /api/v1/video/create, discriminated by the type field.
func (h *VideoHandler) Create(c *fiber.Ctx) error {
	reqType := c.FormValue("type")
	prompt := c.FormValue("prompt")
	size := c.FormValue("size")
	resolution := c.FormValue("resolution")
	imgBase64 := c.FormValue("img_base64")

	if reqType != string(model.ModeTextToVideo) && reqType != string(model.ModeImageToVideo) {
		return response.FieldError(c, "Invalid type. Must be 'text_to_video' or 'image_to_video'")
	}
	if prompt == "" {
		return response.FieldError(c, "Prompt is required")
	}
	if reqType == string(model.ModeTextToVideo) && size == "" {
		return response.FieldError(c, "Size is required for text_to_video")
	}
	if reqType == string(model.ModeImageToVideo) {
		if resolution == "" {
			return response.FieldError(c, "Resolution is required for image_to_video")
		}
		if imgBase64 == "" {
			return response.FieldError(c, "img_base64 is required for image_to_video")
		}
	}

	return h.createJob(c, prompt)
}

// CreatePrompt handles POST /api/v1/video/create_with_prompt.
func (h *VideoHandler) CreatePrompt(c *fiber.Ctx) error {
	role := c.FormValue("role")
	action := c.FormValue("action")
	size := c.FormValue("size")

	if role == "" || action == "" || size == "" {
		return response.FieldError(c, "role, action, and size are required")
	}

	return h.createJob(c, action)
}

// Query handles GET /api/v1/video/query/:job_id. A missing job answers
// the production service's shape: HTTP 200, code 500, status UNKNOWN.
func (h *VideoHandler) Query(c *fiber.Ctx) error {
	jobID := c.Params("job_id")
	if jobID == "" {
		return response.FieldError(c, "Job ID is required")
	}

	job, err := h.jobs.Advance(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return c.JSON(response.Body{
				Code:    500,
				Message: "job not found",
				Data:    fiber.Map{"job_id": jobID, "status": model.StatusUnknown},
			})
		}
		return response.ServerError(c, "Failed to load job")
	}

	data := fiber.Map{"job_id": job.ID, "status": job.Status}
	switch job.Status {
	case model.StatusSucceeded:
		data["video_url"] = job.VideoURL
	case model.StatusFailed:
		msg := job.ErrorMessage
		if msg == "" {
			msg = "video generation failed"
		}
		data["error_message"] = msg
	}

	return response.OKLegacy(c, "", data)
}

func (h *VideoHandler) createJob(c *fiber.Ctx, trigger string) error {
	jobID := "job_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	job := &store.JobRecord{
		ID:     jobID,
		Status: model.StatusPending,
	}
	if msg, failed := strings.CutPrefix(trigger, failPrefix); failed {
		job.Script = []model.TaskStatus{model.StatusPending, model.StatusRunning, model.StatusFailed}
		job.ErrorMessage = strings.TrimSpace(msg)
	} else {
		job.Script = []model.TaskStatus{model.StatusPending, model.StatusRunning, model.StatusSucceeded}
		job.VideoURL = fmt.Sprintf("https://devserver.local/tasks/%s.gif", jobID)
	}

	if err := h.jobs.Create(c.Context(), job); err != nil {
		return response.ServerError(c, "Failed to create job")
	}

	h.logger.Info().Str("job_id", jobID).Msg("job created")
	return response.OKLegacy(c, "task created", fiber.Map{"job_id": jobID})
}
