// Package ffmpeg extracts still frames from a video by shelling out to the
// ffmpeg CLI.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/framescan/framescan/internal/port"
)

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrInvalidPath = errors.New("path contains invalid characters")
)

const framePattern = "frame_%06d.png"

type Extractor struct {
	ffmpegPath string
}

func NewExtractor() *Extractor {
	return &Extractor{ffmpegPath: "ffmpeg"}
}

// Extract writes one PNG per sampled frame into outputDir and returns the
// frame paths in capture order. The frame index is the position in the
// returned slice.
func (e *Extractor) Extract(ctx context.Context, sourcePath string, fps float64, outputDir string) ([]string, error) {
	if err := validatePath(sourcePath); err != nil {
		return nil, fmt.Errorf("invalid source path: %w", err)
	}
	if err := validatePath(outputDir); err != nil {
		return nil, fmt.Errorf("invalid output dir: %w", err)
	}
	if fps < 1 {
		fps = 1
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, extractArgs(sourcePath, fps, outputDir)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}

	frames, err := filepath.Glob(filepath.Join(outputDir, "frame_*.png"))
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	// Zero-padded numbering makes the lexical order the capture order.
	sort.Strings(frames)
	return frames, nil
}

func extractArgs(sourcePath string, fps float64, outputDir string) []string {
	return []string{
		"-i", sourcePath,
		"-vf", "fps=" + strconv.FormatFloat(fps, 'f', -1, 64),
		"-f", "image2",
		"-y",
		filepath.Join(outputDir, framePattern),
	}
}

// lastLine pulls the final non-empty stderr line, which is where ffmpeg puts
// the actual failure reason.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}
	return nil
}

var _ port.FrameExtractor = (*Extractor)(nil)
