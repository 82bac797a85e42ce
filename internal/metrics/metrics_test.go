package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("GET /api/rooms", 200, 0.01)
		IncGRPC("/quickbook.availability.v1.AvailabilityService/CheckRoom", "OK")
		IncReservations(EventCreated, 1)
		IncReservations(EventCompleted, 0)
		IncSheetsSync("ok")
	})
}
