package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"taskrabbit-scraper/models"
	"taskrabbit-scraper/utils"
)

// Header is the fixed CSV column order.
var Header = []string{
	"name",
	"hourly_rate",
	"review_rating",
	"review_count",
	"category_task_count",
	"overall_task_count",
	"two_hour_minimum",
	"elite_status",
}

// WriteError reports a failed CSV write. Records is the number of
// taskers that were in memory and did not reach disk.
type WriteError struct {
	Path    string
	Records int
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s (%d records held in memory): %v", e.Path, e.Records, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CSVWriter writes one file per category run under dir.
type CSVWriter struct {
	dir string
	now func() time.Time
	// out wraps the created file before rows are written.
	out func(*os.File) io.Writer
}

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{
		dir: dir,
		now: time.Now,
		out: func(f *os.File) io.Writer { return f },
	}
}

// Write saves result to <dir>/<category_key>_<YYYYMMDD_HHMMSS>.csv and
// returns the path. Existing files are never overwritten.
//
// Absent optional fields are written as empty cells. A file that fails
// part way through is removed, so no truncated CSV is left behind.
func (w *CSVWriter) Write(result models.RunResult) (string, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", result.CategoryKey, w.now().Format("20060102_150405")))
	fail := func(err error) (string, error) {
		return "", &WriteError{Path: path, Records: len(result.Taskers), Err: err}
	}

	if len(result.Taskers) == 0 {
		utils.Warn("No taskers to write for %s, writing header only", result.CategoryKey)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fail(fmt.Errorf("could not create output dir: %w", err))
	}

	// O_EXCL: a second run within the same second must not clobber the
	// first file.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fail(fmt.Errorf("could not create file: %w", err))
	}

	removePartial := func() {
		if err := os.Remove(path); err != nil {
			utils.Warn("Could not remove partial file %s: %v", path, err)
		}
	}
	discard := func(err error) (string, error) {
		file.Close()
		removePartial()
		return fail(err)
	}

	writer := csv.NewWriter(w.out(file))
	if err := writer.Write(Header); err != nil {
		return discard(err)
	}
	for _, t := range result.Taskers {
		if err := writer.Write(record(t)); err != nil {
			return discard(err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return discard(fmt.Errorf("csv write error: %w", err))
	}
	if err := file.Close(); err != nil {
		removePartial()
		return fail(err)
	}

	utils.Success("Saved %d taskers → %s", len(result.Taskers), path)
	return path, nil
}

func record(t models.Tasker) []string {
	return []string{
		t.Name,
		formatFloat(t.HourlyRate, 2),
		formatFloat(t.ReviewRating, -1),
		formatInt(t.ReviewCount),
		formatInt(t.CategoryTaskCount),
		formatInt(t.OverallTaskCount),
		strconv.FormatBool(t.TwoHourMinimum),
		strconv.FormatBool(t.EliteStatus),
	}
}

func formatFloat(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
