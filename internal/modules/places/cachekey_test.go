package places

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dinefind/core/internal/models"
)

func TestCacheKeyIsStable(t *testing.T) {
	a := textParams("pizza tel aviv")
	b := textParams("pizza tel aviv")
	assert.Equal(t, cacheKey(a), cacheKey(b))
	assert.Len(t, cacheKey(a), 64)
}

func TestCacheKeyDiscriminates(t *testing.T) {
	base := textParams("pizza tel aviv")

	open := base
	open.OpenNow = true
	assert.NotEqual(t, cacheKey(base), cacheKey(open))

	biased := base
	biased.Bias = &models.CircleBias{Lat: 32.08, Lng: 34.78, RadiusMeters: 5000}
	assert.NotEqual(t, cacheKey(base), cacheKey(biased))

	other := textParams("sushi tel aviv")
	assert.NotEqual(t, cacheKey(base), cacheKey(other))
}

func TestCacheKeyNormalizesText(t *testing.T) {
	a := textParams("Pizza Tel Aviv")
	b := textParams("pizza tel aviv")
	assert.Equal(t, cacheKey(a), cacheKey(b))

	c := textParams("  pizza tel aviv  ")
	assert.Equal(t, cacheKey(b), cacheKey(c))
}

func TestCacheKeyRoundsCoordinates(t *testing.T) {
	a := nearbyParams("pizza")
	a.Center = &models.LatLng{Lat: 32.08001, Lng: 34.78002}
	b := nearbyParams("pizza")
	b.Center = &models.LatLng{Lat: 32.080012, Lng: 34.780018}
	assert.Equal(t, cacheKey(a), cacheKey(b))

	c := nearbyParams("pizza")
	c.Center = &models.LatLng{Lat: 32.0810, Lng: 34.78002}
	assert.NotEqual(t, cacheKey(a), cacheKey(c))
}

func TestLogHashTruncates(t *testing.T) {
	key := cacheKey(textParams("pizza"))
	hash := logHash(key)
	assert.Len(t, hash, logHashLen)
	assert.Equal(t, key[:logHashLen], hash)
}
