package registry

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/sepomex-enrich/internal/model"
	"github.com/sells-group/sepomex-enrich/internal/textnorm"
)

// headerAliases maps folded SEPOMEX export headers to normalized column
// names. The normalized names themselves are accepted too, so re-exports of
// pipeline output load unchanged.
var headerAliases = map[string]string{
	"d_codigo":         "postal_code",
	"d_asenta":         "settlement",
	"d_tipo_asenta":    "settlement_type",
	"d_mnpio":          "municipality",
	"d_estado":         "state",
	"d_ciudad":         "city",
	"d_cp":             "office_postal_code",
	"c_estado":         "state_code",
	"c_oficina":        "office_code",
	"c_mnpio":          "municipality_code",
	"c_cve_ciudad":     "city_code",
	"id_asenta_cpcons": "settlement_id",
	"d_zona":           "zone",
}

// Options configures registry loading.
type Options struct {
	Delimiter rune   // CSV delimiter; SEPOMEX text exports use '|'
	Latin1    bool   // decode the file as ISO 8859-1 (legacy exports)
	Sheet     string // XLSX sheet name; empty = first sheet
	State     string // keep only rows of this state (folded comparison)
	Offset    int    // rows to skip after filtering
	Limit     int    // max rows after Offset; 0 = no limit
}

// Load reads the registry file at path, maps headers, filters to the target
// state, and applies the offset/limit slice.
func Load(ctx context.Context, path string, opts Options) ([]model.SourceRecord, error) {
	var (
		rows [][]string
		hdr  []string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		hdr, rows, err = readXLSX(path, opts.Sheet)
	} else {
		hdr, rows, err = readCSV(ctx, path, opts)
	}
	if err != nil {
		return nil, err
	}

	idx, err := mapHeader(hdr)
	if err != nil {
		return nil, err
	}

	var records []model.SourceRecord
	for _, row := range rows {
		rec := recordFromRow(row, idx)
		if opts.State != "" && !textnorm.Equal(rec.State, opts.State) {
			continue
		}
		records = append(records, rec)
	}

	total := len(records)
	records = slice(records, opts.Offset, opts.Limit)

	zap.L().Info("registry loaded",
		zap.String("path", path),
		zap.String("state", opts.State),
		zap.Int("matching_rows", total),
		zap.Int("selected_rows", len(records)),
	)
	return records, nil
}

func readCSV(ctx context.Context, path string, opts Options) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "registry: open input")
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	if opts.Latin1 {
		r = charmap.ISO8859_1.NewDecoder().Reader(f)
	}

	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(ctx, r, CSVOptions{
		Delimiter: opts.Delimiter,
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, nil, err
	}

	select {
	case hdr := <-headerCh:
		return hdr, rows, nil
	default:
		return nil, nil, eris.New("registry: input has no header row")
	}
}

func readXLSX(path, sheet string) ([]string, [][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "registry: open xlsx")
	}

	var s *xlsx.Sheet
	if sheet != "" {
		var ok bool
		if s, ok = f.Sheet[sheet]; !ok {
			return nil, nil, eris.Errorf("registry: sheet %q not found", sheet)
		}
	} else {
		if len(f.Sheets) == 0 {
			return nil, nil, eris.New("registry: xlsx has no sheets")
		}
		s = f.Sheets[0]
	}

	var hdr []string
	var rows [][]string
	for i, row := range s.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		if i == 0 {
			hdr = cells
			continue
		}
		rows = append(rows, cells)
	}
	if hdr == nil {
		return nil, nil, eris.New("registry: xlsx sheet is empty")
	}
	return hdr, rows, nil
}

// mapHeader resolves each input column to a normalized name, returning the
// normalized-name -> column-index mapping. The join fields must be present;
// unknown columns are ignored.
func mapHeader(hdr []string) (map[string]int, error) {
	idx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		key := textnorm.Fold(h)
		if name, ok := headerAliases[key]; ok {
			idx[name] = i
			continue
		}
		for _, col := range model.InputColumns {
			if key == col {
				idx[col] = i
				break
			}
		}
	}
	for _, required := range []string{"postal_code", "settlement", "municipality", "state"} {
		if _, ok := idx[required]; !ok {
			return nil, eris.Errorf("registry: required column %q not found in header", required)
		}
	}
	return idx, nil
}

func recordFromRow(row []string, idx map[string]int) model.SourceRecord {
	at := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return model.SourceRecord{
		PostalCode:       at("postal_code"),
		Settlement:       at("settlement"),
		SettlementType:   at("settlement_type"),
		Municipality:     at("municipality"),
		State:            at("state"),
		City:             at("city"),
		OfficePostalCode: at("office_postal_code"),
		StateCode:        at("state_code"),
		OfficeCode:       at("office_code"),
		MunicipalityCode: at("municipality_code"),
		CityCode:         at("city_code"),
		SettlementID:     at("settlement_id"),
		Zone:             at("zone"),
	}
}

func slice(records []model.SourceRecord, offset, limit int) []model.SourceRecord {
	if offset > len(records) {
		return nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}
