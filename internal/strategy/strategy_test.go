package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/sepomex-enrich/internal/model"
)

func testRow() model.SourceRecord {
	return model.SourceRecord{
		PostalCode:   "44100",
		Settlement:   "Centro",
		Municipality: "Guadalajara",
		State:        "Jalisco",
	}
}

func testEnv() Env {
	return Env{
		State:   "Jalisco",
		Country: "Mexico",
		Viewbox: geom.NewBounds(geom.XY).SetCoords(geom.Coord{-105.7, 18.92}, geom.Coord{-101.5, 22.75}),
	}
}

func TestLadder_OrderAndModes(t *testing.T) {
	ladder := Ladder()
	require.Len(t, ladder, 8)

	wantIDs := []string{
		"cp_viewbox", "cp", "cp_city", "cp_county", "text_cp",
		"text_settlement", "text_settlement_cp", "text_municipality",
	}
	for i, s := range ladder {
		assert.Equal(t, wantIDs[i], s.ID, "rung %d", i)
	}

	// The first five rungs demand an exact postal-code match; the rest
	// fall back to scored free-text acceptance.
	for i, s := range ladder {
		if i < 5 {
			assert.Equal(t, AcceptExactPostcode, s.Mode, "rung %s", s.ID)
			assert.Equal(t, model.TierExactPostcode, s.Tier, "rung %s", s.ID)
		} else {
			assert.Equal(t, AcceptScored, s.Mode, "rung %s", s.ID)
		}
	}
	assert.Equal(t, model.TierTextLocality, ladder[5].Tier)
	assert.Equal(t, model.TierTextLocality, ladder[6].Tier)
	assert.Equal(t, model.TierMunicipalityFallback, ladder[7].Tier)
}

func TestLadder_QueryShapes(t *testing.T) {
	ladder := Ladder()
	row, env := testRow(), testEnv()

	q := ladder[0].Build(row, env)
	assert.Equal(t, "44100", q.PostalCode)
	assert.NotNil(t, q.Viewbox)
	assert.Empty(t, q.FreeText)

	q = ladder[1].Build(row, env)
	assert.Equal(t, "44100", q.PostalCode)
	assert.Nil(t, q.Viewbox, "second rung drops the viewbox bias")

	q = ladder[2].Build(row, env)
	assert.Equal(t, "Guadalajara", q.City)
	assert.Empty(t, q.County)

	q = ladder[3].Build(row, env)
	assert.Equal(t, "Guadalajara", q.County)
	assert.Empty(t, q.City)

	q = ladder[4].Build(row, env)
	assert.Equal(t, "44100, Jalisco, Mexico", q.FreeText)

	q = ladder[5].Build(row, env)
	assert.Equal(t, "Centro, Guadalajara, Jalisco, Mexico", q.FreeText)

	q = ladder[6].Build(row, env)
	assert.Equal(t, "Centro, 44100, Jalisco, Mexico", q.FreeText)

	q = ladder[7].Build(row, env)
	assert.Equal(t, "Guadalajara, Jalisco, Mexico", q.FreeText)
}

func TestLadder_EmptyFieldsOmittedFromFreeText(t *testing.T) {
	ladder := Ladder()
	row := model.SourceRecord{PostalCode: "44100", Municipality: "Guadalajara"}
	env := Env{State: "Jalisco", Country: "Mexico"}

	q := ladder[5].Build(row, env)
	assert.Equal(t, "Guadalajara, Jalisco, Mexico", q.FreeText, "empty settlement is skipped")
}
