package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("/api/consultations", http.StatusCreated, 12*time.Millisecond)
		IncThrottled()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(notifications.WithLabelValues("email", "error"))
	IncNotification("email", errors.New("smtp down"))
	assert.Equal(t, before+1, testutil.ToFloat64(notifications.WithLabelValues("email", "error")))

	before = testutil.ToFloat64(artifacts.WithLabelValues("local", "store", "ok"))
	IncArtifact("local", "store", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(artifacts.WithLabelValues("local", "store", "ok")))

	before = testutil.ToFloat64(consultations.WithLabelValues("conflict"))
	IncConsultation("conflict")
	assert.Equal(t, before+1, testutil.ToFloat64(consultations.WithLabelValues("conflict")))
}
