package model

// Generation modes
type Mode string

const (
	ModeTextToVideo  Mode = "text_to_video"
	ModeImageToVideo Mode = "image_to_video"
	ModePromptDriven Mode = "prompt_driven"
)

// Task status as reported by the service
type TaskStatus string

const (
	StatusPending   TaskStatus = "PENDING"
	StatusRunning   TaskStatus = "RUNNING"
	StatusSucceeded TaskStatus = "SUCCEEDED"
	StatusFailed    TaskStatus = "FAILED"
	StatusUnknown   TaskStatus = "UNKNOWN"
)

// Terminal reports whether no further polling should occur for s.
func (s TaskStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// InFlight reports whether s is a recognized non-terminal status.
func (s TaskStatus) InFlight() bool {
	return s == StatusPending || s == StatusRunning
}
