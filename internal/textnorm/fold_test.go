package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jalisco", "jalisco"},
		{"  GUADALAJARA  ", "guadalajara"},
		{"Mérida", "merida"},
		{"SAN PEDRO TLAQUEPAQUE", "san pedro tlaquepaque"},
		{"Cañadas de Obregón", "canadas de obregon"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), "Fold(%q)", tt.in)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("JALISCO", "jalisco"))
	assert.True(t, Equal("Cañadas", "CANADAS"))
	assert.False(t, Equal("Jalisco", "Colima"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("Municipio de Guadalajara, Jalisco", "guadalajara"))
	assert.True(t, Contains("ZAPOPAN", "Zapopán"))
	assert.False(t, Contains("Guadalajara", "Tonalá"))
	assert.False(t, Contains("anything", ""), "empty needle never matches")
}
