package metrics

import (
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer("therapy-booking", reg)

	m.IncBookingAttempt("reservation", "success")
	m.IncBookingAttempt("reservation", "success")
	m.IncBookingAttempt("intent", "conflict")
	m.AddHoldsReleased("reservation", 3)
	m.AddHoldsReleased("intent", 0)
	m.ObserveHTTPRequest("POST", "/api/v1/bookings", 201, 15*time.Millisecond)
	m.SetDBPoolStats(sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingAttempts.WithLabelValues("therapy-booking", "reservation", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingAttempts.WithLabelValues("therapy-booking", "intent", "conflict")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.holdsReleased.WithLabelValues("therapy-booking", "reservation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("therapy-booking", "POST", "/api/v1/bookings", "201")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.dbConnections.WithLabelValues("therapy-booking", "idle")))
}
