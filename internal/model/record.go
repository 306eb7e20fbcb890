// Package model defines the postal-registry records flowing through the
// enrichment pipeline and the fixed output schema.
package model

import (
	"strings"

	"github.com/sells-group/sepomex-enrich/internal/textnorm"
)

// SourceRecord is one normalized row of the SEPOMEX postal registry.
// Immutable once read; the loader maps the localized export headers onto
// these fields 1:1.
type SourceRecord struct {
	PostalCode       string // d_codigo
	Settlement       string // d_asenta
	SettlementType   string // d_tipo_asenta
	Municipality     string // D_mnpio
	State            string // d_estado
	City             string // d_ciudad
	OfficePostalCode string // d_CP
	StateCode        string // c_estado
	OfficeCode       string // c_oficina
	MunicipalityCode string // c_mnpio
	CityCode         string // c_cve_ciudad
	SettlementID     string // id_asenta_cpcons
	Zone             string // d_zona
}

// InputColumns is the normalized input column order, shared by the loader
// and the output schema.
var InputColumns = []string{
	"postal_code",
	"settlement",
	"settlement_type",
	"municipality",
	"state",
	"city",
	"office_postal_code",
	"state_code",
	"office_code",
	"municipality_code",
	"city_code",
	"settlement_id",
	"zone",
}

// Field returns the value of a normalized input column by name.
func (r SourceRecord) Field(name string) (string, bool) {
	switch name {
	case "postal_code":
		return r.PostalCode, true
	case "settlement":
		return r.Settlement, true
	case "settlement_type":
		return r.SettlementType, true
	case "municipality":
		return r.Municipality, true
	case "state":
		return r.State, true
	case "city":
		return r.City, true
	case "office_postal_code":
		return r.OfficePostalCode, true
	case "state_code":
		return r.StateCode, true
	case "office_code":
		return r.OfficeCode, true
	case "municipality_code":
		return r.MunicipalityCode, true
	case "city_code":
		return r.CityCode, true
	case "settlement_id":
		return r.SettlementID, true
	case "zone":
		return r.Zone, true
	}
	return "", false
}

// InputRow returns the record's values in InputColumns order.
func (r SourceRecord) InputRow() []string {
	row := make([]string, len(InputColumns))
	for i, col := range InputColumns {
		row[i], _ = r.Field(col)
	}
	return row
}

// DefaultResumeKeyFields is the default composition of the resume key.
// Not guaranteed unique across registry rows: a settlement split across
// zones can repeat the identifier, in which case the later row is treated
// as already completed.
var DefaultResumeKeyFields = []string{"postal_code", "settlement", "municipality", "settlement_id"}

// ResumeKey derives the case- and diacritic-normalized key used to detect
// rows completed by a previous run. Unknown field names contribute an
// empty segment so that key shape stays stable across configs.
func (r SourceRecord) ResumeKey(fields []string) string {
	if len(fields) == 0 {
		fields = DefaultResumeKeyFields
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i], _ = r.Field(f)
	}
	return ResumeKeyFromValues(parts)
}

// ResumeKeyFromValues folds and joins already-extracted field values into a
// resume key. Used when scanning prior output, where the values come from
// CSV columns rather than a SourceRecord.
func ResumeKeyFromValues(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = textnorm.Fold(v)
	}
	return strings.Join(parts, "|")
}
