// internal/geo/distance_test.go
package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Distance(28.6139, 77.2090, 28.6139, 77.2090))
}

func TestDistanceSymmetric(t *testing.T) {
	a := Distance(28.6139, 77.2090, 19.0760, 72.8777)
	b := Distance(19.0760, 72.8777, 28.6139, 77.2090)
	assert.InDelta(t, a, b, 1e-9)
}

func TestDistanceDelhiMumbai(t *testing.T) {
	// Delhi to Mumbai is roughly 1150-1160 km great-circle.
	d := Distance(28.6139, 77.2090, 19.0760, 72.8777)
	assert.Greater(t, d, 1150.0)
	assert.Less(t, d, 1160.0)
}

func TestDistanceShortRange(t *testing.T) {
	// Two points ~1.11 km apart along a meridian.
	d := Distance(28.6139, 77.2090, 28.6239, 77.2090)
	assert.InDelta(t, 1.11, d, 0.02)
}
