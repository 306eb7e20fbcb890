package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleHeader = "d_codigo|d_asenta|d_tipo_asenta|D_mnpio|d_estado|d_ciudad|d_CP|c_estado|c_oficina|c_CP|c_tipo_asenta|c_mnpio|id_asenta_cpcons|d_zona|c_cve_ciudad"

func writeSample(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.txt")
	content := strings.Join(append([]string{sampleHeader}, lines...), "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MapsLocalizedHeaders(t *testing.T) {
	path := writeSample(t,
		"44100|Centro|Colonia|Guadalajara|Jalisco|Guadalajara|44001|14|01||9|039|0001|Urbano|01",
	)

	rows, err := Load(context.Background(), path, Options{Delimiter: '|'})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rec := rows[0]
	assert.Equal(t, "44100", rec.PostalCode)
	assert.Equal(t, "Centro", rec.Settlement)
	assert.Equal(t, "Colonia", rec.SettlementType)
	assert.Equal(t, "Guadalajara", rec.Municipality)
	assert.Equal(t, "Jalisco", rec.State)
	assert.Equal(t, "Guadalajara", rec.City)
	assert.Equal(t, "44001", rec.OfficePostalCode)
	assert.Equal(t, "14", rec.StateCode)
	assert.Equal(t, "039", rec.MunicipalityCode)
	assert.Equal(t, "0001", rec.SettlementID)
	assert.Equal(t, "Urbano", rec.Zone)
	assert.Equal(t, "01", rec.CityCode)
}

func TestLoad_FiltersToTargetState(t *testing.T) {
	path := writeSample(t,
		"44100|Centro|Colonia|Guadalajara|Jalisco|||14|||9|039|0001|Urbano|",
		"28000|Centro|Colonia|Colima|Colima|||06|||9|002|0001|Urbano|",
		"45500|San Pedrito|Colonia|Tlaquepaque|JALISCO|||14|||9|098|0002|Urbano|",
	)

	rows, err := Load(context.Background(), path, Options{Delimiter: '|', State: "Jalisco"})
	require.NoError(t, err)
	require.Len(t, rows, 2, "state filter is case-insensitive")
	assert.Equal(t, "44100", rows[0].PostalCode)
	assert.Equal(t, "45500", rows[1].PostalCode)
}

func TestLoad_OffsetAndLimit(t *testing.T) {
	path := writeSample(t,
		"44100|A|Colonia|Guadalajara|Jalisco|||14|||9|039|0001|Urbano|",
		"44110|B|Colonia|Guadalajara|Jalisco|||14|||9|039|0002|Urbano|",
		"44120|C|Colonia|Guadalajara|Jalisco|||14|||9|039|0003|Urbano|",
		"44130|D|Colonia|Guadalajara|Jalisco|||14|||9|039|0004|Urbano|",
	)

	rows, err := Load(context.Background(), path, Options{Delimiter: '|', Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Settlement)
	assert.Equal(t, "C", rows[1].Settlement)

	rows, err = Load(context.Background(), path, Options{Delimiter: '|', Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLoad_Latin1Decoding(t *testing.T) {
	line := "44600|Ladrón de Guevara|Colonia|Guadalajara|Jalisco|||14|||9|039|0005|Urbano|"
	enc, err := charmap.ISO8859_1.NewEncoder().String(sampleHeader + "\n" + line)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "latin1.txt")
	require.NoError(t, os.WriteFile(path, []byte(enc), 0o644))

	rows, err := Load(context.Background(), path, Options{Delimiter: '|', Latin1: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ladrón de Guevara", rows[0].Settlement)
}

func TestLoad_MissingRequiredColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("foo,bar\n1,2\n"), 0o644))

	_, err := Load(context.Background(), path, Options{Delimiter: ','})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required column")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Options{})
	assert.Error(t, err)
}

func TestStreamCSV_HeaderAndRows(t *testing.T) {
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("a,b\n1,2\n3,4\n"), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"a", "b"}, <-headerCh)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, rows)
}
