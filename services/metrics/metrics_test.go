package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New(prometheus.NewRegistry())
	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPDurationSeconds)
	assert.NotNil(t, m.SharingChangesTotal)
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordHTTPRequest("GET", "/v1/departments", "200", 20*time.Millisecond)
	m.RecordHTTPRequest("GET", "/v1/departments", "200", 30*time.Millisecond)
	m.RecordHTTPRequest("POST", "/v1/departments", "400", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/departments", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/departments", "400")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPDurationSeconds))
}

func TestSharingChanged(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SharingChanged("adoption", "PEO", "add")
	m.SharingChanged("adoption", "PEO", "add")
	m.SharingChanged("membership", "", "remove")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SharingChangesTotal.WithLabelValues("adoption", "PEO", "add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SharingChangesTotal.WithLabelValues("membership", "none", "remove")))
}
