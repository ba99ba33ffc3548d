package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/framescan/framescan/internal/domain"
	"github.com/framescan/framescan/internal/infrastructure/logger"
	"github.com/framescan/framescan/internal/port"
)

// Processor runs the frame-extraction-and-decode pipeline for one job
// message: extract frames at the requested rate into a job-scoped temp
// directory, decode them in parallel, persist the hits in timestamp order and
// record the terminal status. It is the single place that decides whether an
// error becomes a recorded Failed state.
type Processor struct {
	store       port.JobStore
	extractor   port.FrameExtractor
	decoder     port.FrameDecoder
	notifier    port.Notifier
	tempRoot    string
	parallelism int
}

func NewProcessor(
	store port.JobStore,
	extractor port.FrameExtractor,
	decoder port.FrameDecoder,
	notifier port.Notifier,
	tempRoot string,
	parallelism int,
) *Processor {
	return &Processor{
		store:       store,
		extractor:   extractor,
		decoder:     decoder,
		notifier:    notifier,
		tempRoot:    tempRoot,
		parallelism: parallelism,
	}
}

func (p *Processor) Process(ctx context.Context, msg domain.JobMessage) (int, error) {
	if _, err := os.Stat(msg.FilePath); err != nil {
		// Terminal for this message; checked before any extraction work.
		errMsg := fmt.Sprintf("source video not found: %s", msg.FilePath)
		logger.Warn.Printf("job %s: %s", msg.JobID, errMsg)
		if serr := p.store.SetStatus(ctx, msg.JobID, domain.StatusFailed, errMsg); serr != nil {
			return 0, serr
		}
		p.notifier.NotifyFailed(ctx, msg.JobID, errMsg)
		return 0, nil
	}

	if err := p.store.SetStatus(ctx, msg.JobID, domain.StatusProcessing, ""); err != nil {
		return 0, p.fail(ctx, msg.JobID, err)
	}

	extractionDir := filepath.Join(p.tempRoot, "frames_"+msg.JobID)
	if err := os.MkdirAll(extractionDir, 0755); err != nil {
		return 0, p.fail(ctx, msg.JobID, fmt.Errorf("create extraction dir: %w", err))
	}
	defer p.cleanup(extractionDir, msg.JobID)

	results, err := p.analyze(ctx, msg, extractionDir)
	if err != nil {
		return 0, p.fail(ctx, msg.JobID, err)
	}

	for _, result := range results {
		if err := p.store.AddResult(ctx, msg.JobID, result); err != nil {
			return 0, p.fail(ctx, msg.JobID, err)
		}
	}

	if err := p.store.SetStatus(ctx, msg.JobID, domain.StatusCompleted, ""); err != nil {
		return 0, p.fail(ctx, msg.JobID, err)
	}
	// Zero decoded codes is a valid outcome; the completion event carries it.
	p.notifier.NotifyCompleted(ctx, msg.JobID, len(results))

	logger.Info.Printf("job %s completed, %d codes decoded", msg.JobID, len(results))
	return len(results), nil
}

// analyze extracts and decodes frames and returns the hits sorted ascending
// by timestamp, re-establishing deterministic order after the unordered
// parallel decode.
func (p *Processor) analyze(ctx context.Context, msg domain.JobMessage, extractionDir string) ([]domain.JobResult, error) {
	fps := msg.EffectiveFPS()

	frames, err := p.extractor.Extract(ctx, msg.FilePath, fps, extractionDir)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		logger.Info.Printf("job %s: no frames extracted", msg.JobID)
		return nil, nil
	}

	limit := p.parallelism
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	var hits []domain.JobResult

	for i, frame := range frames {
		g.Go(func() error {
			// Abort remaining frames promptly once shutdown is requested.
			if err := gctx.Err(); err != nil {
				return err
			}

			content, err := p.decoder.Decode(frame)
			if err != nil {
				// A miss or a broken frame yields no result; it never
				// aborts the batch.
				if !errors.Is(err, domain.ErrNoBarcode) {
					logger.Warn.Printf("job %s: frame %d: %v", msg.JobID, i, err)
				}
				return nil
			}

			result := domain.JobResult{
				Content:          content,
				TimestampSeconds: domain.FrameTimestamp(i, fps),
			}
			mu.Lock()
			hits = append(hits, result)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].TimestampSeconds < hits[b].TimestampSeconds
	})
	return hits, nil
}

// fail records the Failed state and attempts the failure notification, then
// hands the cause back to the consumer, which decides requeue policy.
// Cancellation is not a job defect and passes through untouched no matter
// which step it surfaced in: no Failed write, no failure notification.
func (p *Processor) fail(ctx context.Context, jobID string, cause error) error {
	if isCancellation(cause) {
		return cause
	}
	if err := p.store.SetStatus(ctx, jobID, domain.StatusFailed, cause.Error()); err != nil {
		logger.Error.Printf("job %s: failed to record failure: %v", jobID, err)
	}
	p.notifier.NotifyFailed(ctx, jobID, cause.Error())
	return cause
}

func (p *Processor) cleanup(dir, jobID string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn.Printf("job %s: failed to remove extraction dir %s: %v", jobID, dir, err)
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

var _ port.JobProcessor = (*Processor)(nil)
