package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelativeToAbsolute_ZeroOffset(t *testing.T) {
	origins := []Position{
		{Lat: 66.442387, Lon: 10.369335},
		{Lat: 0, Lon: 0},
		{Lat: -33.865143, Lon: 151.209900},
		{Lat: 78.2232, Lon: 15.6267},
	}

	for _, origin := range origins {
		got := RelativeToAbsolute(origin, 0, 0)
		assert.Equal(t, origin, got, "zero displacement must return the origin unchanged")
	}
}

func TestRelativeToAbsolute_DueEast(t *testing.T) {
	origin := Position{Lat: 66.442387, Lon: 10.369335}

	got := RelativeToAbsolute(origin, 100, 0)

	assert.Greater(t, got.Lon, origin.Lon, "eastward displacement must increase longitude")
	assert.InDelta(t, origin.Lat, got.Lat, 0.001, "eastward displacement must barely change latitude")
}

func TestRelativeToAbsolute_DueNorth(t *testing.T) {
	origin := Position{Lat: 66.442387, Lon: 10.369335}

	got := RelativeToAbsolute(origin, 0, 100)

	assert.Greater(t, got.Lat, origin.Lat, "northward displacement must increase latitude")
	assert.InDelta(t, origin.Lon, got.Lon, 0.001)
}

func TestRelativeToAbsolute_SouthWest(t *testing.T) {
	origin := Position{Lat: 66.442387, Lon: 10.369335}

	got := RelativeToAbsolute(origin, -50, -50)

	assert.Less(t, got.Lat, origin.Lat)
	assert.Less(t, got.Lon, origin.Lon)
}

func TestRelativeToAbsolute_RoundTripDistance(t *testing.T) {
	origin := Position{Lat: 66.442387, Lon: 10.369335}

	cases := []struct {
		name string
		x, y float64
		want float64
	}{
		{"east 100m", 100, 0, 100},
		{"north 250m", 0, 250, 250},
		{"diagonal", 30, 40, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			moved := RelativeToAbsolute(origin, tc.x, tc.y)
			assert.InDelta(t, tc.want, Distance(origin, moved), 0.05,
				"displacement distance must survive the conversion")
		})
	}
}

func TestDistance_Identity(t *testing.T) {
	points := []Position{
		{Lat: 66.442387, Lon: 10.369335},
		{Lat: 0, Lon: 0},
		{Lat: -45.0, Lon: -170.0},
	}

	for _, p := range points {
		assert.Zero(t, Distance(p, p))
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Position{Lat: 66.442387, Lon: 10.369335}
	b := Position{Lat: 66.443000, Lon: 10.371000}

	assert.Equal(t, Distance(a, b), Distance(b, a))
	assert.Greater(t, Distance(a, b), 0.0)
}
