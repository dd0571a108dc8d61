package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hourtrim/core/errs"
	"hourtrim/core/library"
	"hourtrim/logger"
	"hourtrim/metrics"
	"hourtrim/model"

	"github.com/google/uuid"
)

// DefaultTrimSeconds caps every output at one hour.
const DefaultTrimSeconds = 3600

// Recorder persists one row per trim attempt.
type Recorder interface {
	Create(ctx context.Context, record *model.TrimRecord) error
}

// Archiver copies a finished output somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, relativePath, localFile string) error
}

// TrimResult is the produced file, read fully into memory.
type TrimResult struct {
	FileName    string
	ContentType string
	OutputPath  string
	Data        []byte
}

// Trimmer locates an hour file, writes a capped copy under the trimmed root
// and returns it. Two concurrent trims of the same (relative_path, hour_file)
// write to the same output path without any locking.
type Trimmer struct {
	layout     library.Layout
	processor  Processor
	maxSeconds int
	timeout    time.Duration
	recorder   Recorder
	archiver   Archiver
}

// TrimmerOption customizes a Trimmer.
type TrimmerOption func(*Trimmer)

// WithTimeout bounds the transcoder run. Zero means no bound.
func WithTimeout(d time.Duration) TrimmerOption {
	return func(t *Trimmer) { t.timeout = d }
}

// WithRecorder records every attempt, success or failure.
func WithRecorder(r Recorder) TrimmerOption {
	return func(t *Trimmer) { t.recorder = r }
}

// WithArchiver uploads successful outputs.
func WithArchiver(a Archiver) TrimmerOption {
	return func(t *Trimmer) { t.archiver = a }
}

// NewTrimmer creates a Trimmer. maxSeconds <= 0 falls back to DefaultTrimSeconds.
func NewTrimmer(layout library.Layout, processor Processor, maxSeconds int, opts ...TrimmerOption) *Trimmer {
	if maxSeconds <= 0 {
		maxSeconds = DefaultTrimSeconds
	}
	t := &Trimmer{layout: layout, processor: processor, maxSeconds: maxSeconds}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Trim produces the capped copy of hourFile below relativePath on behalf of username.
func (t *Trimmer) Trim(ctx context.Context, username, hourFile, relativePath string) (*TrimResult, error) {
	start := time.Now()
	rel, err := library.CleanRelativePath(relativePath)
	if err != nil {
		return nil, err
	}
	hourFile, err = library.CleanHourFile(hourFile)
	if err != nil {
		return nil, err
	}

	record := &model.TrimRecord{
		ID:           uuid.New().String(),
		Username:     username,
		RelativePath: rel,
		HourFile:     hourFile,
		OutputFile:   library.TrimmedName(hourFile),
		CreatedAt:    start,
	}

	result, err := t.run(ctx, rel, hourFile)

	record.ElapsedMs = time.Since(start).Milliseconds()
	switch {
	case err == nil:
		record.Status = model.TrimStatusSuccess
		record.SizeBytes = int64(len(result.Data))
		record.Archived = t.archive(ctx, rel, result.OutputPath)
		metrics.ObserveTrim(metrics.ResultSuccess, time.Since(start))
	case errors.Is(err, errs.ErrNotFound):
		// the transcoder never ran
		record.Status = model.TrimStatusNotFound
		record.Error = errs.Message(err, "")
		metrics.ObserveTrim(metrics.ResultNotFound, time.Since(start))
	default:
		record.Status = model.TrimStatusFailed
		record.Error = errs.Detail(err)
		metrics.ObserveTrim(metrics.ResultFailed, time.Since(start))
	}
	t.record(ctx, record)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (t *Trimmer) run(ctx context.Context, rel, hourFile string) (*TrimResult, error) {
	clips := t.layout.ReadClipMetadata(rel)
	if _, ok := model.FindClip(clips, hourFile); !ok {
		return nil, errs.NotFound("Metadata not found")
	}

	inputPath := t.layout.SourcePath(rel, hourFile)
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("Input file not found")
		}
		return nil, errs.Execution("Trimming failed", err)
	}
	if info.IsDir() {
		return nil, errs.NotFound("Input file not found")
	}

	outputPath := t.layout.OutputPath(rel, hourFile)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, errs.Execution("Trimming failed", fmt.Errorf("create output directory: %w", err))
	}

	// The request going away must not kill the transcoder halfway.
	runCtx := context.WithoutCancel(ctx)
	if t.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, t.timeout)
		defer cancel()
	}

	logger.Info("Trimming hour file",
		logger.String("input", inputPath),
		logger.String("output", outputPath),
		logger.Int("max_seconds", t.maxSeconds))

	if err := t.processor.Trim(runCtx, inputPath, outputPath, t.maxSeconds); err != nil {
		logger.Error("Trimming failed", logger.String("input", inputPath), logger.ErrorField(err))
		return nil, errs.Execution("Trimming failed", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, errs.Execution("Trimming failed", fmt.Errorf("read output: %w", err))
	}

	name := filepath.Base(outputPath)
	return &TrimResult{
		FileName:    name,
		ContentType: ContentTypeFor(name),
		OutputPath:  outputPath,
		Data:        data,
	}, nil
}

func (t *Trimmer) archive(ctx context.Context, rel, outputPath string) bool {
	if t.archiver == nil {
		return false
	}
	if err := t.archiver.Archive(context.WithoutCancel(ctx), rel, outputPath); err != nil {
		logger.Warn("Failed to archive trimmed file", logger.String("file", outputPath), logger.ErrorField(err))
		return false
	}
	return true
}

func (t *Trimmer) record(ctx context.Context, record *model.TrimRecord) {
	if t.recorder == nil {
		return
	}
	if err := t.recorder.Create(context.WithoutCancel(ctx), record); err != nil {
		logger.Warn("Failed to save trim record", logger.String("id", record.ID), logger.ErrorField(err))
	}
}

// ContentTypeFor picks the response content type from the output file name.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".aac":
		return "audio/aac"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
