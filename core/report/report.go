// Package report builds the per-date status report: one row per hour listed in
// missing_data.json, with source duration and trim state.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"hourtrim/cache"
	"hourtrim/core/library"
	"hourtrim/logger"
	"hourtrim/model"
)

// FileName is the attachment name of the CSV export.
const FileName = "missing_data_report.csv"

const notAvailable = "N/A"

// Header is the CSV header row.
var Header = []string{"Hour", "Original Duration", "Trimmed Duration", "Trimmed", "Status"}

// DurationProber returns an audio file's duration in seconds.
type DurationProber interface {
	GetAudioDuration(ctx context.Context, inputFile string) (float64, error)
}

// Builder assembles report rows from the sidecars and the source files.
type Builder struct {
	layout      library.Layout
	prober      DurationProber
	cache       cache.DurationCache
	trimSeconds int
}

// NewBuilder creates a Builder. A nil cache disables caching.
func NewBuilder(layout library.Layout, prober DurationProber, c cache.DurationCache, trimSeconds int) *Builder {
	if c == nil {
		c = cache.NewNoopDurationCache()
	}
	return &Builder{layout: layout, prober: prober, cache: c, trimSeconds: trimSeconds}
}

// Build returns the rows for one date directory, ordered by hour file name.
func (b *Builder) Build(ctx context.Context, relativePath string) ([]model.ReportRow, error) {
	rel, err := library.CleanRelativePath(relativePath)
	if err != nil {
		return nil, err
	}

	missing := b.layout.ReadMissingData(rel)
	clips := b.layout.ReadClipMetadata(rel)

	hours := make([]string, 0, len(missing.StatusPerHour))
	for hour := range missing.StatusPerHour {
		hours = append(hours, hour)
	}
	sort.Strings(hours)

	rows := make([]model.ReportRow, 0, len(hours))
	for _, hour := range hours {
		status := missing.StatusPerHour[hour]
		if status != model.HourStatusOK {
			status = model.HourStatusMissing
		}

		row := model.ReportRow{
			Hour:            hour,
			Duration:        notAvailable,
			TrimmedDuration: notAvailable,
			Trimmed:         "No",
			Status:          status,
		}
		// a missing hour has no duration and is never reported as trimmed
		if status == model.HourStatusOK {
			if seconds, ok := b.duration(ctx, rel, hour); ok {
				row.Duration = minutes(seconds)
			}
			if _, trimmed := model.FindClip(clips, hour); trimmed {
				row.Trimmed = "Yes"
				row.TrimmedDuration = minutes(float64(b.trimSeconds))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *Builder) duration(ctx context.Context, rel, hour string) (float64, bool) {
	if _, err := library.CleanHourFile(hour); err != nil {
		return 0, false
	}
	path := b.layout.SourcePath(rel, hour)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0, false
	}

	key := cache.DurationKey(path, info)
	if seconds, ok := b.cache.Get(ctx, key); ok {
		return seconds, true
	}
	seconds, err := b.prober.GetAudioDuration(ctx, path)
	if err != nil {
		logger.Warn("Failed to probe duration", logger.String("file", path), logger.ErrorField(err))
		return 0, false
	}
	b.cache.Set(ctx, key, seconds)
	return seconds, true
}

func minutes(seconds float64) string {
	return fmt.Sprintf("%.2f min", seconds/60)
}

// WriteCSV writes the header and rows.
func WriteCSV(w io.Writer, rows []model.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Hour, r.Duration, r.TrimmedDuration, r.Trimmed, r.Status}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
