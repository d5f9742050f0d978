package model

// Defaults applied when the caller leaves a dimension field blank.
// They match what the original front-ends always sent.
const (
	DefaultVideoSize  = "624*624"
	DefaultResolution = "480P"
)

// GenerationRequest is the tagged union over the three generation modes.
// Exactly one concrete variant backs each submission.
type GenerationRequest interface {
	GenerationMode() Mode
}

// TextToVideo requests a video generated from a text prompt.
type TextToVideo struct {
	Prompt         string `validate:"required"`
	NegativePrompt string
	Size           string
}

func (TextToVideo) GenerationMode() Mode { return ModeTextToVideo }

// ImageToVideo requests a video animated from a source image.
type ImageToVideo struct {
	Prompt         string `validate:"required"`
	NegativePrompt string
	Resolution     string
	ImageData      []byte `validate:"required"`
}

func (ImageToVideo) GenerationMode() Mode { return ModeImageToVideo }

// PromptDrivenVideo requests a video for a named role and action; the
// service expands the prompt itself.
type PromptDrivenVideo struct {
	Role   string `validate:"required"`
	Source string
	Action string `validate:"required"`
	Size   string
}

func (PromptDrivenVideo) GenerationMode() Mode { return ModePromptDriven }

// Job tracks one generation task from submission to terminal status.
// It is owned by the polling operation that created it.
type Job struct {
	ID           string     `json:"job_id"`
	Status       TaskStatus `json:"status"`
	ResultURL    string     `json:"video_url,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}
