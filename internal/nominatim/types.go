// Package nominatim is a search client for the public Nominatim geocoder,
// paced and retried to stay inside the provider's usage policy.
package nominatim

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/twpayne/go-geom"
)

// TypePostcode is the candidate type Nominatim assigns to postal-code
// centroids.
const TypePostcode = "postcode"

// Address is the decomposed address of a candidate. All fields are
// optional; which locality field is populated depends on the place kind.
type Address struct {
	Postcode     string `json:"postcode"`
	State        string `json:"state"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
}

// Locality returns the most specific populated locality-like field.
func (a Address) Locality() string {
	for _, v := range []string{a.City, a.Town, a.Municipality, a.County} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Candidate is one search result. Nominatim's jsonv2 format carries
// coordinates as strings.
type Candidate struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Class       string  `json:"class"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

// Coordinates parses the candidate's lat/lon pair.
func (c Candidate) Coordinates() (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(c.Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim: parse lat %q: %w", c.Lat, err)
	}
	lon, err = strconv.ParseFloat(c.Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("nominatim: parse lon %q: %w", c.Lon, err)
	}
	return lat, lon, nil
}

// MatchesPostcode reports whether the candidate is a postal-code match for
// code: either a postcode-type place or an address carrying that code.
func (c Candidate) MatchesPostcode(code string) bool {
	return c.Type == TypePostcode || (code != "" && c.Address.Postcode == code)
}

// Query is a single search request: either structured fields or one
// free-text string, never both.
type Query struct {
	// Structured parameters.
	PostalCode string
	City       string
	County     string
	State      string
	Country    string
	// Viewbox biases (but does not restrict) results toward a region.
	Viewbox *geom.Bounds

	// FreeText, when set, is sent as a single q parameter and the
	// structured fields are ignored.
	FreeText string
}

// params renders the query as Nominatim search parameters.
func (q Query) params() url.Values {
	v := url.Values{}
	v.Set("format", "jsonv2")
	v.Set("addressdetails", "1")
	v.Set("limit", "5")

	if q.FreeText != "" {
		v.Set("q", q.FreeText)
		return v
	}

	if q.PostalCode != "" {
		v.Set("postalcode", q.PostalCode)
	}
	if q.City != "" {
		v.Set("city", q.City)
	}
	if q.County != "" {
		v.Set("county", q.County)
	}
	if q.State != "" {
		v.Set("state", q.State)
	}
	if q.Country != "" {
		v.Set("country", q.Country)
	}
	if q.Viewbox != nil {
		v.Set("viewbox", formatViewbox(q.Viewbox))
	}
	return v
}

// formatViewbox renders bounds as Nominatim's x1,y1,x2,y2 (lon,lat pairs).
func formatViewbox(b *geom.Bounds) string {
	return fmt.Sprintf("%g,%g,%g,%g", b.Min(0), b.Min(1), b.Max(0), b.Max(1))
}
