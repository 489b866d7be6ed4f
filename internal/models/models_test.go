package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayerID_Stable(t *testing.T) {
	a := PlayerID("djokovic-novak", TourATP)
	b := PlayerID("djokovic-novak", TourATP)
	assert.Equal(t, a, b, "Same slug should always hash to the same id")
	assert.Positive(t, a, "ATP ids should be positive")
	assert.Less(t, a, int64(1_000_000_000), "Ids should fold to nine digits")
}

func TestPlayerID_ToursDisjoint(t *testing.T) {
	atp := PlayerID("swiatek-iga", TourATP)
	wta := PlayerID("swiatek-iga", TourWTA)
	assert.Negative(t, wta, "WTA ids should be negative")
	assert.Equal(t, atp, -wta, "Tour only flips the sign of the id")
}

func TestPlayerID_DistinctSlugs(t *testing.T) {
	assert.NotEqual(t,
		PlayerID("alcaraz-carlos", TourATP),
		PlayerID("sinner-jannik", TourATP),
		"Different slugs should produce different ids")
}

func TestMatchID_Format(t *testing.T) {
	id := MatchID("2026-06-05", 123, -456)
	assert.Equal(t, "TE_2026-06-05_123_-456", id)
}

func TestGuessSurface(t *testing.T) {
	tests := []struct {
		tournament string
		want       Surface
	}{
		{"French Open 2026", SurfaceClay},
		{"Monte Carlo Masters", SurfaceClay},
		{"Wimbledon 2026", SurfaceGrass},
		{"Halle Open", SurfaceGrass},
		{"Australian Open 2026", SurfaceHard},
		{"Miami Masters", SurfaceHard},
		{"", SurfaceHard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GuessSurface(tt.tournament), "Tournament %q", tt.tournament)
	}
}
