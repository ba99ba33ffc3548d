package port

import (
	"context"

	"github.com/framescan/framescan/internal/domain"
)

// FrameExtractor turns a video into a numbered sequence of still images.
// Extract writes frames into outputDir at the given sampling rate and returns
// their paths in capture order (index 0..N-1).
type FrameExtractor interface {
	Extract(ctx context.Context, sourcePath string, fps float64, outputDir string) ([]string, error)
}

// FrameDecoder reads one still image and returns the decoded barcode payload.
// A frame without a readable code returns domain.ErrNoBarcode.
type FrameDecoder interface {
	Decode(path string) (string, error)
}

// JobProcessor runs the full frame-extraction-and-decode pipeline for one
// message and returns the number of persisted results. A returned error that
// wraps context.Canceled means caller-initiated shutdown, not a job defect.
type JobProcessor interface {
	Process(ctx context.Context, msg domain.JobMessage) (int, error)
}

// JobPublisher is the producer-side fire-and-forget enqueue.
type JobPublisher interface {
	Publish(ctx context.Context, msg domain.JobMessage) error
}
