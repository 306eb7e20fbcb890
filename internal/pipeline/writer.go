package pipeline

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sepomex-enrich/internal/model"
)

// Writer appends enriched rows to two CSV streams: every processed row goes
// to the results file, and low-confidence rows additionally go to the
// misses file for manual review. Each write is flushed so a killed run
// leaves both files consistent and resumable.
type Writer struct {
	resultsFile *os.File
	missesFile  *os.File
	results     *csv.Writer
	misses      *csv.Writer
}

// NewWriter opens (or creates) both streams in append mode, writing the
// header only when a file is new or empty.
func NewWriter(resultsPath, missesPath string) (*Writer, error) {
	resultsFile, resultsW, err := openAppend(resultsPath)
	if err != nil {
		return nil, err
	}
	missesFile, missesW, err := openAppend(missesPath)
	if err != nil {
		_ = resultsFile.Close()
		return nil, err
	}
	return &Writer{
		resultsFile: resultsFile,
		missesFile:  missesFile,
		results:     resultsW,
		misses:      missesW,
	}, nil
}

func openAppend(path string) (*os.File, *csv.Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "writer: open %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, eris.Wrapf(err, "writer: stat %s", path)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(model.OutputColumns()); err != nil {
			_ = f.Close()
			return nil, nil, eris.Wrapf(err, "writer: write header %s", path)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, nil, eris.Wrapf(err, "writer: flush header %s", path)
		}
	}
	return f, w, nil
}

// Write appends one record, routing review-worthy tiers to the misses
// stream as well, and flushes both streams.
func (w *Writer) Write(rec model.OutputRecord) error {
	row := rec.Row()
	if err := w.results.Write(row); err != nil {
		return eris.Wrap(err, "writer: append result")
	}
	if rec.Tier.NeedsReview() {
		if err := w.misses.Write(row); err != nil {
			return eris.Wrap(err, "writer: append miss")
		}
	}

	w.results.Flush()
	w.misses.Flush()
	if err := w.results.Error(); err != nil {
		return eris.Wrap(err, "writer: flush results")
	}
	if err := w.misses.Error(); err != nil {
		return eris.Wrap(err, "writer: flush misses")
	}
	return nil
}

// Close flushes and closes both streams.
func (w *Writer) Close() error {
	w.results.Flush()
	w.misses.Flush()

	var firstErr error
	for _, err := range []error{w.results.Error(), w.misses.Error(), w.resultsFile.Close(), w.missesFile.Close()} {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return eris.Wrap(firstErr, "writer: close")
	}
	return nil
}
