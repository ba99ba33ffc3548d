package domain

import (
	"math"
	"time"
)

type JobStatus string

const (
	StatusQueued     JobStatus = "Queued"
	StatusProcessing JobStatus = "Processing"
	StatusCompleted  JobStatus = "Completed"
	StatusFailed     JobStatus = "Failed"
)

// JobMessage is the queue payload published by the upload API and consumed by
// the worker. Immutable once published.
type JobMessage struct {
	JobID         string  `json:"jobId"`
	FilePath      string  `json:"filePath"`
	FPS           float64 `json:"fps"`
	CorrelationID string  `json:"correlationId,omitempty"`
}

// EffectiveFPS clamps sampling rates below 1 to 1 frame per second, the same
// floor the extractor and FrameTimestamp apply. Producers are expected to
// publish sane values; the clamp keeps foreign ones from dividing by zero.
func (m JobMessage) EffectiveFPS() float64 {
	if m.FPS < 1 {
		return 1
	}
	return m.FPS
}

// JobState is the authoritative progress record for a job. ErrorMessage is
// non-empty only when Status is StatusFailed.
type JobState struct {
	Status       JobStatus `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// JobMetadata is written once at job initialization and never mutated except
// by re-initialization of the same job id.
type JobMetadata struct {
	FileName        string    `json:"fileName"`
	FramesPerSecond float64   `json:"framesPerSecond"`
	CreatedAt       time.Time `json:"createdAt"`
}

// JobResult is one decoded barcode payload, positioned in the source video by
// the timestamp of the frame it was found in.
type JobResult struct {
	Content          string  `json:"content"`
	TimestampSeconds float64 `json:"timestampSeconds"`
}

// FrameTimestamp returns the position of a frame in seconds, rounded
// half-away-from-zero to three decimals. fps below 1 is clamped to 1.
func FrameTimestamp(frameIndex int, fps float64) float64 {
	if fps < 1 {
		fps = 1
	}
	return math.Round(float64(frameIndex)/fps*1000) / 1000
}
