package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogSkipsEmptyKey(t *testing.T) {
	catalog, err := NewDefaultSpecialityCatalog()
	require.NoError(t, err)

	names := catalog.Names()
	require.NotEmpty(t, names)
	assert.NotContains(t, names, "")
	assert.Equal(t, "Anesthésie", names[0])
	assert.True(t, catalog.Contains(UrgencySpeciality))
}

func TestNewSpecialityCatalogKeepsOrder(t *testing.T) {
	catalog, err := NewSpecialityCatalog(strings.NewReader(`{"Urologie":"Chirurgie","":"","Cardiologie":"Médecine","Urologie":"dup"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Urologie", "Cardiologie"}, catalog.Names())

	group, ok := catalog.Group("Cardiologie")
	assert.True(t, ok)
	assert.Equal(t, "Médecine", group)
}

func TestNewSpecialityCatalogRejectsArray(t *testing.T) {
	_, err := NewSpecialityCatalog(strings.NewReader(`["Cardiologie"]`))
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	catalog, err := NewSpecialityCatalog(strings.NewReader(`{"Cardiologie":"","Cardiologie pédiatrique":"","Chirurgie générale":"","Médecine d'urgence":""}`))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty input", "", []string{}},
		{"blank input", "   ", []string{}},
		{"case insensitive", "CARDIO", []string{"Cardiologie", "Cardiologie pédiatrique"}},
		{"trimmed", "  chi ", []string{"Chirurgie générale"}},
		{"accented", "méd", []string{"Médecine d'urgence"}},
		{"decomposed accent", "me\u0301d", []string{"Médecine d'urgence"}},
		{"no match", "xyz", []string{}},
		{"prefix only", "logie", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, catalog.Filter(tt.input))
		})
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"cardiologie":        "Cardiologie",
		"CARDIOLOGIE":        "Cardiologie",
		"médecine d'urgence": "Médecine d'urgence",
		"électrophysiologie": "Électrophysiologie",
		"x":                  "X",
	}

	for in, want := range tests {
		assert.Equal(t, want, Capitalize(in), in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Médecine", Normalize("  Médecine\n"))
}
