// Package pipeline drives postal-registry rows through the strategy ladder
// and persists the enriched output so interrupted runs can resume.
package pipeline

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sepomex-enrich/internal/model"
	"github.com/sells-group/sepomex-enrich/internal/registry"
	"github.com/sells-group/sepomex-enrich/internal/textnorm"
)

// ResumeIndex is the set of resume keys already geocoded by prior runs.
// Rebuilt fresh from the output file at the start of every run; the output
// CSV is the pipeline's only cross-run state.
type ResumeIndex struct {
	keyFields []string
	keys      map[string]struct{}
}

// NewResumeIndex returns an empty index over the given key fields.
func NewResumeIndex(keyFields []string) *ResumeIndex {
	if len(keyFields) == 0 {
		keyFields = model.DefaultResumeKeyFields
	}
	return &ResumeIndex{
		keyFields: keyFields,
		keys:      make(map[string]struct{}),
	}
}

// LoadResumeIndex scans an existing output file and indexes every row that
// already carries both coordinates. A missing file yields an empty index.
func LoadResumeIndex(ctx context.Context, path string, keyFields []string) (*ResumeIndex, error) {
	idx := NewResumeIndex(keyFields)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "resume: open output")
	}
	defer f.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	rowCh, errCh := registry.StreamCSV(ctx, f, registry.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	var cols map[string]int
	indexed := 0
	for row := range rowCh {
		if cols == nil {
			select {
			case hdr := <-headerCh:
				cols = columnIndex(hdr)
			default:
				return nil, eris.New("resume: output file has no header")
			}
		}

		if !rowGeocoded(row, cols) {
			continue
		}
		idx.keys[resumeKeyFromRow(row, cols, idx.keyFields)] = struct{}{}
		indexed++
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "resume: scan output")
	}

	zap.L().Info("resume index built",
		zap.String("path", path),
		zap.Int("completed_rows", indexed),
	)
	return idx, nil
}

// Completed reports whether the row's key was geocoded by a prior run.
func (r *ResumeIndex) Completed(rec model.SourceRecord) bool {
	_, ok := r.keys[rec.ResumeKey(r.keyFields)]
	return ok
}

// Add marks a record as completed within the current run.
func (r *ResumeIndex) Add(rec model.SourceRecord) {
	r.keys[rec.ResumeKey(r.keyFields)] = struct{}{}
}

// Len returns the number of completed keys.
func (r *ResumeIndex) Len() int { return len(r.keys) }

func columnIndex(hdr []string) map[string]int {
	cols := make(map[string]int, len(hdr))
	for i, h := range hdr {
		cols[textnorm.Fold(h)] = i
	}
	return cols
}

func rowGeocoded(row []string, cols map[string]int) bool {
	return cell(row, cols, "lat") != "" && cell(row, cols, "lon") != ""
}

func resumeKeyFromRow(row []string, cols map[string]int, keyFields []string) string {
	values := make([]string, len(keyFields))
	for i, f := range keyFields {
		values[i] = cell(row, cols, f)
	}
	return model.ResumeKeyFromValues(values)
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
